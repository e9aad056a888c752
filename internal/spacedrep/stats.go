package spacedrep

import (
	"fmt"
	"math"
	"time"
)

// Stats summarizes a learner's review workload.
type Stats struct {
	DueToday    int `json:"due_today"`
	DueTomorrow int `json:"due_tomorrow"`
	DueThisWeek int `json:"due_this_week"`
	Total       int `json:"total"`
}

// ComputeStats counts items by when they come due relative to now.
//
// DueToday follows IsDueToday, so never-scheduled items count as due.
// DueThisWeek covers the seven days after today and includes DueTomorrow.
func ComputeStats(items []State, now time.Time) Stats {
	today := EndOfDay(now)
	tomorrow := addDays(today, 1)
	weekEnd := addDays(today, WeekDays)

	st := Stats{Total: len(items)}
	for _, s := range items {
		if IsDueToday(s, now) {
			st.DueToday++
			continue
		}
		next := *s.NextReviewAt
		if !next.After(tomorrow) {
			st.DueTomorrow++
		}
		if !next.After(weekEnd) {
			st.DueThisWeek++
		}
	}
	return st
}

// TimeUntil renders the distance from now to next for display, e.g.
// "Due tomorrow" or "3 days overdue".
func TimeUntil(next *time.Time, now time.Time) string {
	if next == nil {
		return "Not scheduled"
	}
	days := int(math.Ceil(next.Sub(now).Hours() / 24.0))
	switch {
	case days < 0:
		return fmt.Sprintf("%d %s overdue", -days, pluralDays(-days))
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("Due in %d days", days)
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
