package spacedrep

import "time"

// Day is the fixed length of one scheduling day.
const Day = 24 * time.Hour

const (
	// DefaultEaseFactor is the ease every newly enabled item starts with.
	DefaultEaseFactor = 2.5

	// MinEaseFactor is the floor for the ease factor after any review.
	MinEaseFactor = 1.3

	// MinIntervalDays is both the starting interval and the interval after a lapse.
	MinIntervalDays = 1

	// MaxIntervalDays caps the interval at one year.
	MaxIntervalDays = 365

	// PlateauIntervalDays is the flat interval after the first and second
	// successful reviews, before the ease factor takes over.
	PlateauIntervalDays = 6

	// plateauRepetitions is the last repetition count that uses the plateau.
	plateauRepetitions = 2

	// WeekDays is the horizon of the "this week" bucket.
	WeekDays = 7
)

// EndOfDay returns the last millisecond of t's calendar day in UTC.
// All day-boundary decisions use UTC, independent of the host time zone.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// addDays returns t advanced by n fixed-length days.
func addDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * Day)
}
