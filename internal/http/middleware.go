package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/example/plateforme-admin/internal/session"
)

// SessionGuard decides whether protected pages may render.
type SessionGuard interface {
	Check(ctx context.Context) session.Decision
	Current(ctx context.Context) (session.Record, bool)
}

// RequireSession admits requests only while the stored token decodes and has
// not expired. Other requests are redirected to the login page; an unusable
// token has already been discarded by the guard.
func RequireSession(guard SessionGuard, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if guard == nil {
				responder.redirectToLogin(ctx, w)
				return
			}

			decision := guard.Check(ctx)
			if !decision.Authenticated() {
				responder.loggerFor(ctx).InfoContext(ctx, "session rejected", "outcome", decision.Outcome.String())
				responder.redirectToLogin(ctx, w)
				return
			}

			record, ok := guard.Current(ctx)
			if !ok {
				responder.redirectToLogin(ctx, w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(ctx, record)))
		})
	}
}

// RequestLogger attaches a request scoped logger and logs each request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", id)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
