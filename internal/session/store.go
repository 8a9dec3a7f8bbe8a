package session

import (
	"context"
	"strings"
	"sync"
)

// Record is the persisted session: the raw token plus display fields cached at
// login so pages can show who is signed in without decoding the token again.
type Record struct {
	Token       string
	DisplayName string
	UserID      string
	Email       string
}

// Empty reports whether the record carries no token.
func (r Record) Empty() bool {
	return strings.TrimSpace(r.Token) == ""
}

// Store persists at most one session record.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, record Record) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	record Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored record, or an empty record when nothing is stored.
func (s *MemoryStore) Load(context.Context) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record, nil
}

// Save replaces the stored record.
func (s *MemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	s.record = record
	s.mu.Unlock()
	return nil
}

// Clear removes the stored record.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.record = Record{}
	s.mu.Unlock()
	return nil
}
