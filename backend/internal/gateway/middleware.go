package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/gateway/util"
)

// TokenValidator resolves a bearer token to the caller identity
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (access.Identity, error)
}

// AuthMiddleware rejects requests without a valid, unrevoked token and
// injects the caller identity into the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Validate signature, session and account
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			id, err := validator.ValidateToken(ctx, tokenStr)
			if err != nil {
				util.HandleError(w, r, err)
				return
			}

			// 3. Inject identity into context
			next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), id)))
		})
	}
}

// RequestLogger logs one line per request with its id, status and latency
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}
