package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/service"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	logKey ctxKey = iota
	principalKey
)

// Logger returns an access-log middleware. It also stores a request-scoped
// entry in the context for handlers that need to log a failure.
func Logger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := log.WithField("request_id", chimiddleware.GetReqID(r.Context()))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logKey, entry)))

			entry.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
			}).Info("request")
		})
	}
}

func requestLog(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(logKey).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}

// CORS allows the browser client on any origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityVerifier resolves a bearer token to the caller's email.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RequireBearer rejects requests without a verifiable bearer token and stores
// the verified email in the context.
func RequireBearer(v IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeServiceError(w, r, service.ErrUnauthorized)
				return
			}
			email, err := v.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				requestLog(r).WithError(err).Debug("bearer rejected")
				writeServiceError(w, r, service.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, email)))
		})
	}
}

// Principal returns the email stored by RequireBearer.
func Principal(ctx context.Context) string {
	email, _ := ctx.Value(principalKey).(string)
	return email
}
