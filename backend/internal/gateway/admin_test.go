package gateway_test

import (
	"net/http"
	"testing"

	"unipulse/backend/internal/admin"
	"unipulse/backend/internal/shared"
)

func TestGateway_Admin(t *testing.T) {
	env := setupGatewayTestEnv(t)

	t.Run("List Users By Role", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/admin/users?role=student", env.AdminToken, nil)
		expectStatus(t, rr, http.StatusOK)

		var resp struct {
			Data []shared.User `json:"data"`
		}
		decode(t, rr, &resp)
		if len(resp.Data) != 1 || resp.Data[0].StudentID != "S1" {
			t.Errorf("Expected only S1, got %+v", resp.Data)
		}

		expectStatus(t, env.do(t, http.MethodGet, "/api/admin/users?role=dean", env.AdminToken, nil), http.StatusBadRequest)
		expectStatus(t, env.do(t, http.MethodGet, "/api/admin/users", env.StudentToken, nil), http.StatusForbidden)
	})

	t.Run("System Stats", func(t *testing.T) {
		expectStatus(t, env.do(t, http.MethodPost, "/api/attendance", env.AdminToken, map[string]string{
			"student_id": "S1", "subject": "Math", "date": "2024-01-10", "status": "present",
		}), http.StatusCreated)

		rr := env.do(t, http.MethodGet, "/api/admin/stats", env.AdminToken, nil)
		expectStatus(t, rr, http.StatusOK)

		var resp struct {
			Data admin.SystemStats `json:"data"`
		}
		decode(t, rr, &resp)
		if resp.Data.TotalStudents != 1 || resp.Data.TotalAdmins != 1 || resp.Data.AttendanceRecords != 1 {
			t.Errorf("Unexpected stats: %+v", resp.Data)
		}
	})

	t.Run("Reset Password Revokes Sessions", func(t *testing.T) {
		expectStatus(t, env.do(t, http.MethodPost, "/api/admin/users/S1/reset-password", env.StudentToken, nil), http.StatusForbidden)

		rr := env.do(t, http.MethodPost, "/api/admin/users/S1/reset-password", env.AdminToken, nil)
		expectStatus(t, rr, http.StatusOK)

		var resp struct {
			Data admin.ResetResult `json:"data"`
		}
		decode(t, rr, &resp)

		expectStatus(t, env.do(t, http.MethodGet, "/api/auth/me", env.StudentToken, nil), http.StatusUnauthorized)
		if tok := env.login(t, "S1", resp.Data.InitialPassword); tok == "" {
			t.Error("Expected login with the generated password")
		}

		expectStatus(t, env.do(t, http.MethodPost, "/api/admin/users/NOPE/reset-password", env.AdminToken, nil), http.StatusNotFound)
	})
}
