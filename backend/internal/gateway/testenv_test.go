package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/admin"
	"unipulse/backend/internal/attendance"
	"unipulse/backend/internal/auth"
	"unipulse/backend/internal/gateway"
	"unipulse/backend/internal/pyq"
	"unipulse/backend/internal/result"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
	"unipulse/backend/internal/store"
	"unipulse/backend/internal/timetable"
)

const testMaxUpload = 64 * 1024

// TestEnv holds the router and the in-memory backends behind it
type TestEnv struct {
	Router http.Handler
	Store  *store.Store
	Blob   *storage.Memory

	AdminToken   string
	StudentToken string
}

// setupGatewayTestEnv builds the full router over in-memory stores with one
// admin (ADMIN) and one student (S1) logged in.
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	logger := zaptest.NewLogger(t)
	cfg := &shared.Config{
		ServiceName: "unipulse-api",
		Security: shared.SecurityConfig{
			JWTSecret:     "gateway-test-secret",
			TokenLifetime: time.Hour,
			BCryptCost:    bcrypt.MinCost,
		},
		Upload: shared.UploadConfig{MaxSize: testMaxUpload},
		CORS:   shared.CORSConfig{AllowedOrigins: []string{"*"}, MaxAge: 300},
	}

	st := store.NewMemory()
	mem := storage.NewMemory()
	blob := storage.WithLimit(mem, cfg.Upload.MaxSize)

	authSvc := auth.NewService(st.Users, st.Sessions, cfg.Security, logger)
	router := gateway.SetupRoutes(gateway.Deps{
		Config:     cfg,
		Logger:     logger,
		Auth:       authSvc,
		Attendance: attendance.NewService(st.Attendance, logger),
		Results:    result.NewService(st.Results, blob, logger),
		Timetable:  timetable.NewService(st.Timetable, logger),
		PYQ:        pyq.NewService(st.PYQ, blob, logger),
		Admin:      admin.NewService(st, cfg.Security.BCryptCost, logger),
	})

	env := &TestEnv{Router: router, Store: st, Blob: mem}

	ctx := context.Background()
	root := access.Identity{StudentID: "ROOT", Role: shared.RoleAdmin}
	for _, u := range []auth.CreateUserInput{
		{RegisterInput: auth.RegisterInput{StudentID: "ADMIN", Name: "Admin", Password: "adminpass"}, Role: shared.RoleAdmin},
		{RegisterInput: auth.RegisterInput{StudentID: "S1", Name: "Student One", Password: "studentpass"}, Role: shared.RoleStudent},
	} {
		if _, err := authSvc.CreateUser(ctx, root, u); err != nil {
			t.Fatalf("Failed to seed %s: %v", u.StudentID, err)
		}
	}
	env.AdminToken = env.login(t, "ADMIN", "adminpass")
	env.StudentToken = env.login(t, "S1", "studentpass")
	return env
}

func (env *TestEnv) login(t *testing.T, studentID, password string) string {
	rr := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"student_id": studentID,
		"password":   password,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Login %s: expected 200, got %d. Body: %s", studentID, rr.Code, rr.Body.String())
	}
	var resp struct {
		Data auth.LoginResult `json:"data"`
	}
	decode(t, rr, &resp)
	return resp.Data.AccessToken
}

// do sends a JSON request, optionally authenticated
func (env *TestEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return env.send(req, token)
}

// upload sends a multipart request with fields and an optional file part
func (env *TestEnv) upload(t *testing.T, path, token string, fields map[string]string, filename string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return env.send(req, token)
}

func (env *TestEnv) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("Expected %d, got %d. Body: %s", want, rr.Code, rr.Body.String())
	}
}
