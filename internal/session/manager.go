package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/plateforme-admin/internal/logging"
)

// Manager owns the single session shared by every service instance.
//
// Any caller may read the token. Only Establish (login), End (logout) and
// Invalidate (unauthorized response or failed guard) write the store.
type Manager struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewManager constructs a Manager over store.
func NewManager(store Store, now func() time.Time) *Manager {
	return NewManagerWithLogger(store, now, nil)
}

// NewManagerWithLogger constructs a Manager with a specified logger.
func NewManagerWithLogger(store Store, now func() time.Time, logger *slog.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, now: now, logger: logger}
}

func (m *Manager) loggerWith(ctx context.Context, operation string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = m.logger
	}
	return logger.With("component", "session", "operation", operation)
}

// Token returns the stored raw token, or "" when no session exists or the
// store cannot be read.
func (m *Manager) Token(ctx context.Context) string {
	record, ok := m.Current(ctx)
	if !ok {
		return ""
	}
	return record.Token
}

// Current returns the stored record and whether one exists.
func (m *Manager) Current(ctx context.Context) (Record, bool) {
	if m == nil {
		return Record{}, false
	}
	record, err := m.store.Load(ctx)
	if err != nil {
		m.loggerWith(ctx, "Current").ErrorContext(ctx, "failed to load session", "error", err)
		return Record{}, false
	}
	if record.Empty() {
		return Record{}, false
	}
	return record, true
}

// Establish stores a freshly issued session. The token must have the
// three-segment shape of a signed token; anything else is rejected so a
// present session always implies a decodable token.
func (m *Manager) Establish(ctx context.Context, record Record) error {
	if m == nil {
		return fmt.Errorf("session manager is nil")
	}
	record.Token = strings.TrimSpace(record.Token)
	if _, err := ParseClaims(record.Token); err != nil {
		return err
	}

	logger := m.loggerWith(ctx, "Establish")
	if err := m.store.Save(ctx, record); err != nil {
		logger.ErrorContext(ctx, "failed to store session", "error", err)
		return err
	}
	logger.InfoContext(ctx, "session established", "user_id", record.UserID)
	return nil
}

// End discards the session on explicit logout.
func (m *Manager) End(ctx context.Context) error {
	return m.clear(ctx, "End", "session ended")
}

// Invalidate discards the session after the backend rejected it or the guard
// found it unusable.
func (m *Manager) Invalidate(ctx context.Context) error {
	return m.clear(ctx, "Invalidate", "session invalidated")
}

func (m *Manager) clear(ctx context.Context, operation, message string) error {
	if m == nil {
		return fmt.Errorf("session manager is nil")
	}
	logger := m.loggerWith(ctx, operation)
	if err := m.store.Clear(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to clear session", "error", err)
		return err
	}
	logger.InfoContext(ctx, message)
	return nil
}

// Check evaluates the stored token and clears the store when the token is
// expired or malformed. A corrupt token is never retried.
func (m *Manager) Check(ctx context.Context) Decision {
	if m == nil {
		return Decision{Outcome: OutcomeAbsent}
	}
	record, err := m.store.Load(ctx)
	if err != nil {
		m.loggerWith(ctx, "Check").ErrorContext(ctx, "failed to load session", "error", err)
		return Decision{Outcome: OutcomeAbsent}
	}

	decision := Evaluate(record.Token, m.now())
	if decision.RequiresCleanup() {
		m.loggerWith(ctx, "Check").InfoContext(ctx, "discarding unusable session", "outcome", decision.Outcome.String())
		_ = m.Invalidate(ctx)
	}
	return decision
}

// Authenticated reports whether protected pages may render. It never
// contacts the backend.
func (m *Manager) Authenticated(ctx context.Context) bool {
	return m.Check(ctx).Authenticated()
}
