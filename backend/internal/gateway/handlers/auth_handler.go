package handlers

import (
	"net/http"

	"unipulse/backend/internal/auth"
	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/shared"
)

// AuthHandler serves account and session endpoints
type AuthHandler struct {
	Auth *auth.Service
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleError(w, r, err)
		return
	}

	user, err := h.Auth.Register(r.Context(), req)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleError(w, r, err)
		return
	}

	result, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout. The token's session is removed;
// an already revoked token still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Authorization token required")
		return
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "logout successful",
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.Me(r.Context(), caller(r))
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			err = shared.Unauthenticated("user not found")
		}
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ChangePasswordInput
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleError(w, r, err)
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), caller(r), req); err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "password changed successfully",
	})
}

// CreateUser handles POST /admin/users
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req auth.CreateUserInput
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleError(w, r, err)
		return
	}

	user, err := h.Auth.CreateUser(r.Context(), caller(r), req)
	if err != nil {
		util.HandleError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, user)
}
