package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"unipulse/backend/internal/admin"
	"unipulse/backend/internal/gateway/util"
)

// AdminHandler serves account management endpoints
type AdminHandler struct {
	Admin *admin.Service
}

// ListUsers handles GET /admin/users?role=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Admin.ListUsers(r.Context(), caller(r), r.URL.Query().Get("role"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, users)
}

// ResetPassword handles POST /admin/users/{student_id}/reset-password
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	res, err := h.Admin.ResetPassword(r.Context(), caller(r), chi.URLParam(r, "student_id"))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, res)
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context(), caller(r))
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, stats)
}
