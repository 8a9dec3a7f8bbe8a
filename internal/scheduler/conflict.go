// Package scheduler detects overlapping presentation slots.
package scheduler

import (
	"sort"
	"time"
)

// Slot is the time range occupied by one presentation.
type Slot struct {
	ID      int64
	OwnerID int64
	Start   time.Time
	End     time.Time
}

func (s Slot) bounded() bool {
	return !s.Start.IsZero() && s.End.After(s.Start)
}

func (s Slot) overlaps(other Slot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// ConflictType describes the type of conflict detected between slots.
type ConflictType string

const (
	// ConflictTypeOwner indicates the presenter is double-booked.
	ConflictTypeOwner ConflictType = "owner"
	// ConflictTypeSlot indicates another presentation occupies the same time.
	ConflictTypeSlot ConflictType = "slot"
)

// Conflict details an overlapping slot relation that callers can present to users.
type Conflict struct {
	WithID int64
	Type   ConflictType
}

// DetectConflicts identifies conflicts for the candidate slot against existing ones.
// Slots without a positive duration never conflict, and a slot never
// conflicts with itself. Results are ordered by the start of the other slot.
func DetectConflicts(existing []Slot, candidate Slot) []Conflict {
	if !candidate.bounded() {
		return nil
	}

	matches := make([]Slot, 0)
	for _, slot := range existing {
		if slot.ID == candidate.ID || !slot.bounded() || !slot.overlaps(candidate) {
			continue
		}
		matches = append(matches, slot)
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Start.Equal(matches[j].Start) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Start.Before(matches[j].Start)
	})

	conflicts := make([]Conflict, 0, len(matches))
	for _, slot := range matches {
		kind := ConflictTypeSlot
		if candidate.OwnerID != 0 && slot.OwnerID == candidate.OwnerID {
			kind = ConflictTypeOwner
		}
		conflicts = append(conflicts, Conflict{WithID: slot.ID, Type: kind})
	}
	return conflicts
}
