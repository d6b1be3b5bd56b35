package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/pyq"
	"unipulse/backend/internal/shared"
)

// PYQHandler serves previous-year question endpoints
type PYQHandler struct {
	PYQ       *pyq.Service
	MaxUpload int64
}

// Upload handles POST /pyq/upload (multipart "file" plus metadata fields)
func (h *PYQHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.MaxUpload); err != nil {
		util.HandleError(w, r, err)
		return
	}

	in := pyq.UploadInput{
		Subject:  r.FormValue("subject"),
		ExamType: r.FormValue("exam_type"),
	}
	var err error
	if in.Semester, err = intParam(r, "semester"); err != nil {
		util.HandleError(w, r, err)
		return
	}
	if in.Year, err = intParam(r, "year"); err != nil {
		util.HandleError(w, r, err)
		return
	}
	if in.File, err = formFile(r, "file", h.MaxUpload); err != nil {
		util.HandleError(w, r, err)
		return
	}

	doc, err := h.PYQ.Upload(r.Context(), caller(r), in)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, doc)
}

// List handles GET /pyq
func (h *PYQHandler) List(w http.ResponseWriter, r *http.Request) {
	f := shared.PYQFilter{
		Subject:  r.URL.Query().Get("subject"),
		ExamType: r.URL.Query().Get("exam_type"),
	}
	var err error
	if f.Semester, err = intParam(r, "semester"); err != nil {
		util.HandleError(w, r, err)
		return
	}
	if f.Year, err = intParam(r, "year"); err != nil {
		util.HandleError(w, r, err)
		return
	}

	docs, err := h.PYQ.List(r.Context(), f)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, docs)
}

// Subjects handles GET /pyq/subjects
func (h *PYQHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.PYQ.Subjects(r.Context())
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, subjects)
}

// Get handles GET /pyq/{id}
func (h *PYQHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.PYQ.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /pyq/{id}
func (h *PYQHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.PYQ.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		util.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
