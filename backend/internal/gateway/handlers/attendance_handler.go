package handlers

import (
	"fmt"
	"net/http"

	"unipulse/backend/internal/attendance"
	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceHandler serves attendance endpoints
type AttendanceHandler struct {
	Attendance *attendance.Service
	MaxUpload  int64
}

// Record handles POST /attendance
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordInput
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleError(w, r, err)
		return
	}

	rec, err := h.Attendance.Record(r.Context(), caller(r), req)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, rec)
}

// BulkUpload handles POST /attendance/bulk-upload (multipart "file")
func (h *AttendanceHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.MaxUpload); err != nil {
		util.HandleError(w, r, err)
		return
	}
	upload, err := formFile(r, "file", h.MaxUpload)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	if upload == nil {
		util.HandleError(w, r, shared.Validation("file is required"))
		return
	}
	if int64(len(upload.Data)) > h.MaxUpload {
		util.HandleError(w, r, shared.TooLarge(fmt.Sprintf("file exceeds maximum size of %d bytes", h.MaxUpload)))
		return
	}

	report, err := h.Attendance.BulkUpload(r.Context(), caller(r), upload.Filename, upload.Data)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, report)
}

// List handles GET /attendance
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.Attendance.List(r.Context(), caller(r), attendance.ListQuery{
		StudentID: q.Get("student_id"),
		Subject:   q.Get("subject"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, records)
}

// Stats handles GET /attendance/stats
func (h *AttendanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.Attendance.Stats(r.Context(), caller(r), q.Get("student_id"), q.Get("subject"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, stats)
}

// SubjectWise handles GET /attendance/stats/subject-wise
func (h *AttendanceHandler) SubjectWise(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Attendance.SubjectWise(r.Context(), caller(r), r.URL.Query().Get("student_id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, stats)
}

// Export handles GET /attendance/export as an xlsx download
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	buf, filename, err := h.Attendance.Export(r.Context(), caller(r), r.URL.Query().Get("student_id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
