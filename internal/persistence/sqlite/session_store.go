package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/plateforme-admin/internal/session"
)

const (
	keyToken       = "token"
	keyDisplayName = "display_name"
	keyUserID      = "user_id"
	keyEmail       = "email"

	metadataSalt = "sealer_salt"
)

// SessionStore persists the single client session in SQLite. When a secret is
// configured the token is sealed before it is written.
type SessionStore struct {
	pool   *ConnectionPool
	sealer *Sealer
	now    func() time.Time
	logger *slog.Logger
}

var _ session.Store = (*SessionStore)(nil)

// SessionStoreOptions configures NewSessionStore.
type SessionStoreOptions struct {
	Secret string
	Params SealerParams
	Now    func() time.Time
	Logger *slog.Logger
}

// NewSessionStore constructs a store over pool.
func NewSessionStore(ctx context.Context, pool *ConnectionPool, opts SessionStoreOptions) (*SessionStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	store := &SessionStore{
		pool:   pool,
		now:    opts.Now,
		logger: opts.Logger.With("component", "session_store"),
	}

	if opts.Secret != "" {
		salt, err := store.loadOrCreateSalt(ctx)
		if err != nil {
			return nil, err
		}
		sealer, err := NewSealer(opts.Secret, salt, opts.Params)
		if err != nil {
			return nil, err
		}
		store.sealer = sealer
	}
	return store, nil
}

// Load returns the stored session. A token that cannot be unsealed with the
// current secret is discarded and an empty record is returned.
func (s *SessionStore) Load(ctx context.Context) (session.Record, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT key, value FROM session_entries`)
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to load session: %w", mapError(err))
	}
	defer rows.Close()

	values := make(map[string]string, 4)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return session.Record{}, fmt.Errorf("failed to scan session entry: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return session.Record{}, fmt.Errorf("failed to iterate session entries: %w", err)
	}
	rows.Close()

	token := values[keyToken]
	if token == "" {
		return session.Record{}, nil
	}
	if s.sealer != nil {
		opened, err := s.sealer.Open(token)
		if err != nil {
			s.logger.WarnContext(ctx, "discarding session that cannot be unsealed", "error", err)
			if clearErr := s.Clear(ctx); clearErr != nil {
				return session.Record{}, clearErr
			}
			return session.Record{}, nil
		}
		token = opened
	}

	return session.Record{
		Token:       token,
		DisplayName: values[keyDisplayName],
		UserID:      values[keyUserID],
		Email:       values[keyEmail],
	}, nil
}

// Save replaces the stored session in a single transaction.
func (s *SessionStore) Save(ctx context.Context, record session.Record) error {
	token := record.Token
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return err
		}
		token = sealed
	}

	updatedAt := s.now().UTC().Format(time.RFC3339)
	entries := []struct{ key, value string }{
		{keyToken, token},
		{keyDisplayName, record.DisplayName},
		{keyUserID, record.UserID},
		{keyEmail, record.Email},
	}

	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_entries`); err != nil {
			return fmt.Errorf("failed to reset session: %w", mapError(err))
		}
		for _, entry := range entries {
			if entry.value == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_entries (key, value, updated_at) VALUES (?, ?, ?)`,
				entry.key, entry.value, updatedAt,
			); err != nil {
				return fmt.Errorf("failed to store session %s: %w", entry.key, mapError(err))
			}
		}
		return nil
	})
}

// Clear removes every stored session entry.
func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.pool.DB().ExecContext(ctx, `DELETE FROM session_entries`); err != nil {
		return fmt.Errorf("failed to clear session: %w", mapError(err))
	}
	return nil
}

func (s *SessionStore) loadOrCreateSalt(ctx context.Context) ([]byte, error) {
	var encoded string
	err := s.pool.DB().QueryRowContext(ctx, `SELECT value FROM store_metadata WHERE key = ?`, metadataSalt).Scan(&encoded)
	switch {
	case err == nil:
		salt, decodeErr := base64.RawStdEncoding.DecodeString(encoded)
		if decodeErr != nil {
			return nil, fmt.Errorf("stored salt is corrupt: %w", decodeErr)
		}
		return salt, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to read sealer salt: %w", mapError(err))
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	if _, err := s.pool.DB().ExecContext(ctx,
		`INSERT INTO store_metadata (key, value) VALUES (?, ?)`,
		metadataSalt, base64.RawStdEncoding.EncodeToString(salt),
	); err != nil {
		return nil, fmt.Errorf("failed to store sealer salt: %w", mapError(err))
	}
	return salt, nil
}
