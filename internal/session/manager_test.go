package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/plateforme-admin/internal/testfixtures"
)

type failingStore struct {
	loadErr  error
	saveErr  error
	clearErr error
	cleared  int
	record   Record
}

func (s *failingStore) Load(context.Context) (Record, error) { return s.record, s.loadErr }
func (s *failingStore) Save(_ context.Context, r Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.record = r
	return nil
}
func (s *failingStore) Clear(context.Context) error {
	s.cleared++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.record = Record{}
	return nil
}

func TestManager_Authenticated(t *testing.T) {
	t.Parallel()

	tokens := testfixtures.NewTokenFactory("")

	t.Run("absent session is not authenticated", func(t *testing.T) {
		t.Parallel()

		manager := NewManager(NewMemoryStore(), testfixtures.NewClock(time.Time{}).NowFunc())
		if manager.Authenticated(context.Background()) {
			t.Fatalf("expected empty store to be unauthenticated")
		}
	})

	t.Run("future expiry leaves storage untouched", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		store := NewMemoryStore()
		record := Record{Token: tokens.Issue(t, "u", clock.Now().Add(time.Hour)), DisplayName: "Alice Martin"}
		_ = store.Save(context.Background(), record)

		manager := NewManager(store, clock.NowFunc())
		if !manager.Authenticated(context.Background()) {
			t.Fatalf("expected active token to authenticate")
		}
		stored, _ := store.Load(context.Background())
		if stored != record {
			t.Fatalf("expected storage untouched, got %#v", stored)
		}
	})

	t.Run("past expiry clears storage", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		store := NewMemoryStore()
		_ = store.Save(context.Background(), Record{Token: tokens.Issue(t, "u", clock.Now().Add(-time.Hour))})

		manager := NewManager(store, clock.NowFunc())
		if manager.Authenticated(context.Background()) {
			t.Fatalf("expected expired token to be rejected")
		}
		if stored, _ := store.Load(context.Background()); !stored.Empty() {
			t.Fatalf("expected storage cleared, got %#v", stored)
		}
	})

	t.Run("expiry reached by the clock clears storage", func(t *testing.T) {
		t.Parallel()

		clock := testfixtures.NewClock(time.Time{})
		store := NewMemoryStore()
		_ = store.Save(context.Background(), Record{Token: tokens.Issue(t, "u", clock.Now().Add(time.Minute))})
		manager := NewManager(store, clock.NowFunc())

		if !manager.Authenticated(context.Background()) {
			t.Fatalf("expected token to be active before expiry")
		}
		clock.Advance(time.Minute)
		if manager.Authenticated(context.Background()) {
			t.Fatalf("expected token to be expired exactly at exp")
		}
		if _, ok := manager.Current(context.Background()); ok {
			t.Fatalf("expected session to be discarded")
		}
	})

	t.Run("malformed token clears storage without error", func(t *testing.T) {
		t.Parallel()

		store := &failingStore{record: Record{Token: "garbage"}}
		manager := NewManager(store, time.Now)

		decision := manager.Check(context.Background())
		if decision.Outcome != OutcomeMalformed {
			t.Fatalf("expected malformed outcome, got %s", decision.Outcome)
		}
		if store.cleared != 1 {
			t.Fatalf("expected one clear, got %d", store.cleared)
		}
	})

	t.Run("store read failure fails closed", func(t *testing.T) {
		t.Parallel()

		store := &failingStore{loadErr: errors.New("disk gone")}
		manager := NewManager(store, time.Now)
		if manager.Authenticated(context.Background()) {
			t.Fatalf("expected load failure to be unauthenticated")
		}
		if store.cleared != 0 {
			t.Fatalf("expected no clear on load failure")
		}
	})

	t.Run("clear failure still reports unauthenticated", func(t *testing.T) {
		t.Parallel()

		store := &failingStore{record: Record{Token: "x.y.z"}, clearErr: errors.New("read-only")}
		manager := NewManager(store, time.Now)
		if manager.Authenticated(context.Background()) {
			t.Fatalf("expected malformed token to be rejected")
		}
	})
}

func TestManager_Establish(t *testing.T) {
	t.Parallel()

	tokens := testfixtures.NewTokenFactory("")

	t.Run("stores well-formed tokens and trims whitespace", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		manager := NewManager(store, time.Now)
		token := tokens.Issue(t, "u", time.Now().Add(time.Hour))

		if err := manager.Establish(context.Background(), Record{Token: " " + token + " ", UserID: "7"}); err != nil {
			t.Fatalf("Establish failed: %v", err)
		}
		if got := manager.Token(context.Background()); got != token {
			t.Fatalf("expected trimmed token, got %q", got)
		}
		if !manager.Authenticated(context.Background()) {
			t.Fatalf("expected freshly established session to authenticate")
		}
	})

	t.Run("keeps tokens with numeric subject and jti", func(t *testing.T) {
		t.Parallel()

		now := testfixtures.ReferenceTime()
		store := NewMemoryStore()
		manager := NewManager(store, func() time.Time { return now })
		token := tokens.WithPayload(fmt.Sprintf(`{"sub":42,"jti":7,"exp":%d}`, now.Add(time.Hour).Unix()))

		if err := manager.Establish(context.Background(), Record{Token: token, UserID: "42"}); err != nil {
			t.Fatalf("Establish failed: %v", err)
		}
		if !manager.Authenticated(context.Background()) {
			t.Fatalf("expected unexpired token to authenticate")
		}
		if got := manager.Token(context.Background()); got != token {
			t.Fatalf("expected session to be kept, got %q", got)
		}
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		manager := NewManager(store, time.Now)
		if err := manager.Establish(context.Background(), Record{Token: "opaque"}); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("expected ErrMalformedToken, got %v", err)
		}
		if _, ok := manager.Current(context.Background()); ok {
			t.Fatalf("expected nothing stored")
		}
	})

	t.Run("propagates store failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("full")
		manager := NewManager(&failingStore{saveErr: expected}, time.Now)
		err := manager.Establish(context.Background(), Record{Token: tokens.Issue(t, "u", time.Now().Add(time.Hour))})
		if !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestManager_EndAndInvalidate(t *testing.T) {
	t.Parallel()

	tokens := testfixtures.NewTokenFactory("")
	for name, clear := range map[string]func(*Manager, context.Context) error{
		"end":        (*Manager).End,
		"invalidate": (*Manager).Invalidate,
	} {
		clear := clear
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			manager := NewManager(NewMemoryStore(), time.Now)
			_ = manager.Establish(context.Background(), Record{Token: tokens.Issue(t, "u", time.Now().Add(time.Hour))})
			if err := clear(manager, context.Background()); err != nil {
				t.Fatalf("clear failed: %v", err)
			}
			if manager.Token(context.Background()) != "" {
				t.Fatalf("expected token to be cleared")
			}
		})
	}

	var nilManager *Manager
	if err := nilManager.End(context.Background()); err == nil {
		t.Fatalf("expected error from nil manager")
	}
	if nilManager.Authenticated(context.Background()) {
		t.Fatalf("expected nil manager to be unauthenticated")
	}
}
