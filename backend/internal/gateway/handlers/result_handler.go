package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/result"
)

// ResultHandler serves result and CGPA endpoints
type ResultHandler struct {
	Results   *result.Service
	MaxUpload int64
}

// Upsert handles POST /results. Fields may arrive as multipart parts or
// query parameters; the optional "file" part is the result sheet.
func (h *ResultHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.MaxUpload); err != nil {
		util.HandleError(w, r, err)
		return
	}

	in := result.UpsertInput{
		StudentID:    r.FormValue("student_id"),
		AcademicYear: r.FormValue("academic_year"),
		Subjects:     r.FormValue("subjects"),
	}
	var err error
	if in.Semester, err = intParam(r, "semester"); err != nil {
		util.HandleError(w, r, err)
		return
	}
	if in.SGPA, err = floatParam(r, "sgpa"); err != nil {
		util.HandleError(w, r, err)
		return
	}
	if in.CGPA, err = floatParam(r, "cgpa"); err != nil {
		util.HandleError(w, r, err)
		return
	}
	if in.File, err = formFile(r, "file", h.MaxUpload); err != nil {
		util.HandleError(w, r, err)
		return
	}

	rec, err := h.Results.Upsert(r.Context(), caller(r), in)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rec)
}

// List handles GET /results
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	semester, err := intParam(r, "semester")
	if err != nil {
		util.HandleError(w, r, err)
		return
	}

	results, err := h.Results.List(r.Context(), caller(r), r.URL.Query().Get("student_id"), semester)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, results)
}

// Get handles GET /results/{id}
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Results.Get(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rec)
}

// CGPA handles GET /results/cgpa/calculate
func (h *ResultHandler) CGPA(w http.ResponseWriter, r *http.Request) {
	report, err := h.Results.CGPA(r.Context(), caller(r), r.URL.Query().Get("student_id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, report)
}
