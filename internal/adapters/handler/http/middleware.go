package http

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type contextKey string

const AdminClaimsKey contextKey = "admin_claims"

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter since browser EventSource cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// RequireAdmin rejects requests without a valid admin token.
func RequireAdmin(tokens ports.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || tokens == nil {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "missing admin token")
				return
			}
			claims, err := tokens.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "invalid admin token")
				return
			}
			ctx := context.WithValue(r.Context(), AdminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireSharedToken guards the relay ingest with a static secret. An empty
// secret disables the check.
func requireSharedToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" && subtle.ConstantTimeCompare([]byte(bearerToken(r)), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "invalid relay token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
