package http

import (
	"context"
	"log/slog"

	"github.com/example/plateforme-admin/internal/logging"
	"github.com/example/plateforme-admin/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// ContextWithSession returns a derived context carrying the active session record.
func ContextWithSession(ctx context.Context, record session.Record) context.Context {
	return context.WithValue(ctx, sessionContextKey, record)
}

// SessionFromContext extracts the session record stored by RequireSession.
func SessionFromContext(ctx context.Context) (session.Record, bool) {
	record, ok := ctx.Value(sessionContextKey).(session.Record)
	return record, ok
}

// ContextWithLogger stores the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
