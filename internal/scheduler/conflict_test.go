package scheduler

import (
	"testing"
	"time"
)

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	existing := []Slot{
		{ID: 1, OwnerID: 7, Start: at(9, 0), End: at(10, 0)},
		{ID: 2, OwnerID: 8, Start: at(9, 30), End: at(11, 0)},
		{ID: 3, OwnerID: 9, Start: at(10, 0), End: at(10, 30)},
		{ID: 4, OwnerID: 7, Start: day, End: day},
	}

	t.Run("owner overlap produces conflict", func(t *testing.T) {
		candidate := Slot{ID: 10, OwnerID: 7, Start: at(9, 45), End: at(10, 15)}
		got := DetectConflicts(existing, candidate)
		want := []Conflict{
			{WithID: 1, Type: ConflictTypeOwner},
			{WithID: 2, Type: ConflictTypeSlot},
			{WithID: 3, Type: ConflictTypeSlot},
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d conflicts, got %+v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("conflict %d: expected %+v, got %+v", i, want[i], got[i])
			}
		}
	})

	t.Run("touching slots do not conflict", func(t *testing.T) {
		candidate := Slot{ID: 11, OwnerID: 9, Start: at(11, 0), End: at(12, 0)}
		if got := DetectConflicts(existing, candidate); len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("slot never conflicts with itself", func(t *testing.T) {
		if got := DetectConflicts(existing, existing[2]); len(got) != 1 || got[0].WithID != 2 {
			t.Fatalf("expected only the overlap with slot 2, got %+v", got)
		}
	})

	t.Run("unbounded candidate yields no conflicts", func(t *testing.T) {
		if got := DetectConflicts(existing, Slot{ID: 12, OwnerID: 7, Start: day, End: day}); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})
}
