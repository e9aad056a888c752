package spacedrep

import (
	"fmt"
	"math"
	"time"
)

// State holds the spaced repetition schedule for a single item.
//
// A nil NextReviewAt means the item was never scheduled. IsDueToday treats
// that as due, while Classify and GetDue leave such items out entirely.
type State struct {
	ItemID       string     `json:"item_id"`
	IntervalDays int        `json:"interval_days"`
	EaseFactor   float64    `json:"ease_factor"`
	Repetitions  int        `json:"repetitions"`
	NextReviewAt *time.Time `json:"next_review_at"`
}

// Validate reports whether s satisfies the bounds every engine-produced
// state keeps. Stores use it to reject corrupted rows.
func (s State) Validate() error {
	switch {
	case s.IntervalDays < MinIntervalDays || s.IntervalDays > MaxIntervalDays:
		return fmt.Errorf("%w: interval_days=%d", ErrInvalidState, s.IntervalDays)
	case !(s.EaseFactor >= MinEaseFactor) || math.IsInf(s.EaseFactor, 1):
		return fmt.Errorf("%w: ease_factor=%g", ErrInvalidState, s.EaseFactor)
	case s.Repetitions < 0:
		return fmt.Errorf("%w: repetitions=%d", ErrInvalidState, s.Repetitions)
	}
	return nil
}

// IsScheduled reports whether the state carries a next review time.
func (s State) IsScheduled() bool {
	return s.NextReviewAt != nil
}

// OverdueDays returns how many days past the next review time now is.
// Returns 0 if not yet due or never scheduled.
func (s State) OverdueDays(now time.Time) float64 {
	if s.NextReviewAt == nil || now.Before(*s.NextReviewAt) {
		return 0
	}
	return now.Sub(*s.NextReviewAt).Hours() / 24.0
}

// clone returns a copy of s that shares no pointers with it.
func (s State) clone() State {
	out := s
	if s.NextReviewAt != nil {
		t := *s.NextReviewAt
		out.NextReviewAt = &t
	}
	return out
}
