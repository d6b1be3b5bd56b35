package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"unipulse/backend/internal/admin"
	"unipulse/backend/internal/attendance"
	"unipulse/backend/internal/auth"
	"unipulse/backend/internal/gateway/handlers"
	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/metrics"
	"unipulse/backend/internal/pyq"
	"unipulse/backend/internal/ratelimit"
	"unipulse/backend/internal/result"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
	"unipulse/backend/internal/timetable"
)

// Version is reported by GET /
const Version = "1.0.0"

// Deps are the services and settings the router is built from
type Deps struct {
	Config     *shared.Config
	Logger     *zap.Logger
	Auth       *auth.Service
	Attendance *attendance.Service
	Results    *result.Service
	Timetable  *timetable.Service
	PYQ        *pyq.Service
	Admin      *admin.Service

	// Limiter throttles logins; nil disables rate limiting
	Limiter *ratelimit.Limiter
	// FilesDir is served under /files/ when blobs live on local disk
	FilesDir string
	// Ready is consulted by /health; nil means always healthy
	Ready func(ctx context.Context) error
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: d.Config.CORS.AllowCredentials,
		MaxAge:           d.Config.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	maxUpload := d.Config.Upload.MaxSize
	authHandler := &handlers.AuthHandler{Auth: d.Auth}
	attendanceHandler := &handlers.AttendanceHandler{Attendance: d.Attendance, MaxUpload: maxUpload}
	resultHandler := &handlers.ResultHandler{Results: d.Results, MaxUpload: maxUpload}
	timetableHandler := &handlers.TimetableHandler{Timetable: d.Timetable}
	pyqHandler := &handlers.PYQHandler{PYQ: d.PYQ, MaxUpload: maxUpload}
	adminHandler := &handlers.AdminHandler{Admin: d.Admin}

	// 3. Infrastructure
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusOK, map[string]string{
			"name":    d.Config.ServiceName,
			"version": Version,
		})
	})
	r.Get("/health", healthHandler(d.Ready))
	r.Handle("/metrics", promhttp.Handler())
	if d.FilesDir != "" {
		r.Handle(storage.PublicPrefix+"*", http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(d.FilesDir))))
	}

	// 4. API Routes
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/register", authHandler.Register)
		r.With(d.Limiter.Middleware("login", d.Config.Redis.LoginLimit, d.Config.Redis.LoginWindow)).
			Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout) // revokes whatever token is presented

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Auth))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", adminHandler.ListUsers)
				r.Post("/users", authHandler.CreateUser)
				r.Post("/users/{student_id}/reset-password", adminHandler.ResetPassword)
				r.Get("/stats", adminHandler.Stats)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", attendanceHandler.List)
				r.Post("/", attendanceHandler.Record)
				r.Post("/bulk-upload", attendanceHandler.BulkUpload)
				r.Get("/stats", attendanceHandler.Stats)
				r.Get("/stats/subject-wise", attendanceHandler.SubjectWise)
				r.Get("/export", attendanceHandler.Export)
			})

			r.Route("/results", func(r chi.Router) {
				r.Get("/", resultHandler.List)
				r.Post("/", resultHandler.Upsert)
				r.Get("/cgpa/calculate", resultHandler.CGPA)
				r.Get("/{id}", resultHandler.Get)
			})

			r.Route("/timetable", func(r chi.Router) {
				r.Get("/", timetableHandler.List)
				r.Post("/", timetableHandler.Upsert)
				r.Get("/current-week", timetableHandler.CurrentWeek)
				r.Get("/current-week.ics", timetableHandler.Calendar)
			})

			r.Route("/pyq", func(r chi.Router) {
				r.Get("/", pyqHandler.List)
				r.Post("/upload", pyqHandler.Upload)
				r.Get("/subjects", pyqHandler.Subjects)
				r.Get("/{id}", pyqHandler.Get)
				r.Delete("/{id}", pyqHandler.Delete)
			})
		})
	})

	return r
}

func healthHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				util.WriteJSONError(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
