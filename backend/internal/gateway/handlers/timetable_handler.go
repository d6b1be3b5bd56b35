package handlers

import (
	"net/http"

	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/timetable"
)

// TimetableHandler serves timetable endpoints
type TimetableHandler struct {
	Timetable *timetable.Service
}

// Upsert handles POST /timetable
func (h *TimetableHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req timetable.UpsertInput
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleError(w, r, err)
		return
	}

	entry, err := h.Timetable.Upsert(r.Context(), caller(r), req)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, entry)
}

// List handles GET /timetable
func (h *TimetableHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.Timetable.List(r.Context(), caller(r), q.Get("student_id"), q.Get("day"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, entries)
}

// CurrentWeek handles GET /timetable/current-week
func (h *TimetableHandler) CurrentWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.Timetable.CurrentWeek(r.Context(), caller(r), r.URL.Query().Get("student_id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, week)
}

// Calendar handles GET /timetable/current-week.ics
func (h *TimetableHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Timetable.CalendarICS(r.Context(), caller(r), r.URL.Query().Get("student_id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timetable.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}
