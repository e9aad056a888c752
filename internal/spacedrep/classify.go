package spacedrep

import (
	"sort"
	"time"
)

// Bucket names one of the three review groups.
type Bucket string

const (
	BucketDue   Bucket = "due"
	BucketWeek  Bucket = "week"
	BucketLater Bucket = "later"
)

// Buckets partitions scheduled items by how soon they are due.
// Each list is ordered by NextReviewAt, earliest first.
type Buckets struct {
	Due   []State `json:"due"`
	Week  []State `json:"week"`
	Later []State `json:"later"`
}

// Len returns the number of items across all buckets.
func (b Buckets) Len() int {
	return len(b.Due) + len(b.Week) + len(b.Later)
}

// BucketOf returns the bucket a scheduled item falls into at now.
// ok is false for items without a next review time.
func BucketOf(state State, now time.Time) (bucket Bucket, ok bool) {
	if state.NextReviewAt == nil {
		return "", false
	}
	today := EndOfDay(now)
	switch next := *state.NextReviewAt; {
	case !next.After(today):
		return BucketDue, true
	case !next.After(addDays(today, WeekDays)):
		return BucketWeek, true
	default:
		return BucketLater, true
	}
}

// Classify groups items into due, week and later relative to now.
// Items that were never scheduled appear in no bucket. items is not modified.
func Classify(items []State, now time.Time) Buckets {
	b := Buckets{
		Due:   []State{},
		Week:  []State{},
		Later: []State{},
	}
	for _, s := range sortedScheduled(items) {
		bucket, _ := BucketOf(s, now)
		switch bucket {
		case BucketDue:
			b.Due = append(b.Due, s)
		case BucketWeek:
			b.Week = append(b.Week, s)
		case BucketLater:
			b.Later = append(b.Later, s)
		}
	}
	return b
}

// GetDue returns the items due by the end of now's day, earliest first.
// Items that were never scheduled are not considered due here.
func GetDue(items []State, now time.Time) []State {
	today := EndOfDay(now)
	due := []State{}
	for _, s := range sortedScheduled(items) {
		if !s.NextReviewAt.After(today) {
			due = append(due, s)
		}
	}
	return due
}

// sortedScheduled copies the items that have a next review time and sorts
// them by it. Ties keep their input order.
func sortedScheduled(items []State) []State {
	out := make([]State, 0, len(items))
	for _, s := range items {
		if s.NextReviewAt != nil {
			out = append(out, s.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextReviewAt.Before(*out[j].NextReviewAt)
	})
	return out
}
