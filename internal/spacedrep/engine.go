package spacedrep

import (
	"fmt"
	"math"
	"time"
)

// Initialize returns the schedule for an item that is being enabled for
// review. Any prior state is ignored; callers use it only when no state
// exists yet, or as an explicit reset.
func Initialize(now time.Time) State {
	next := addDays(now, MinIntervalDays)
	return State{
		IntervalDays: MinIntervalDays,
		EaseFactor:   DefaultEaseFactor,
		Repetitions:  0,
		NextReviewAt: &next,
	}
}

// Update returns the schedule that follows a review graded q at now.
// state is not modified. An invalid grade returns ErrInvalidQuality and a
// zero State.
func Update(state State, q Quality, now time.Time) (State, error) {
	if !q.IsValid() {
		return State{}, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}

	out := state.clone()
	out.EaseFactor = nextEaseFactor(state.EaseFactor, q)

	if q.IsLapse() {
		out.Repetitions = 0
		out.IntervalDays = MinIntervalDays
	} else {
		out.Repetitions = max(state.Repetitions, 0)
		if out.Repetitions < math.MaxInt {
			out.Repetitions++
		}
		if out.Repetitions <= plateauRepetitions {
			out.IntervalDays = PlateauIntervalDays
		} else {
			days := math.Round(float64(state.IntervalDays) * out.EaseFactor)
			out.IntervalDays = int(math.Min(days, MaxIntervalDays))
		}
	}
	out.IntervalDays = clampInterval(out.IntervalDays)

	next := addDays(now, out.IntervalDays)
	out.NextReviewAt = &next
	return out, nil
}

// IsDueToday reports whether the item should be reviewed by the end of
// now's day. A never-scheduled item is always due.
func IsDueToday(state State, now time.Time) bool {
	if state.NextReviewAt == nil {
		return true
	}
	return !state.NextReviewAt.After(EndOfDay(now))
}

// nextEaseFactor applies the SM-2 ease adjustment for q to ease, with the
// MinEaseFactor floor.
//
//	EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// A non-finite ease (only possible from a corrupted record) is treated as
// MinEaseFactor.
func nextEaseFactor(ease float64, q Quality) float64 {
	if math.IsNaN(ease) || math.IsInf(ease, 0) {
		ease = MinEaseFactor
	}
	d := float64(5 - q)
	return math.Max(MinEaseFactor, ease+(0.1-d*(0.08+d*0.02)))
}

func clampInterval(days int) int {
	return min(max(days, MinIntervalDays), MaxIntervalDays)
}
