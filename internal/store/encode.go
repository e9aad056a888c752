package store

import (
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/synap/internal/spacedrep"
)

// TimeLayout is the fixed-width UTC form timestamps are stored in, so that
// text comparison orders the same way as time comparison.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var sq = entsql.Dialect(dialect.SQLite)

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a TimeLayout timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// EncodeState serializes a state snapshot for an event column. nil encodes
// as SQL NULL.
func EncodeState(s *spacedrep.State) (any, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return string(b), nil
}

// DecodeState is the inverse of EncodeState.
func DecodeState(s *string) (*spacedrep.State, error) {
	if s == nil {
		return nil, nil
	}
	var st spacedrep.State
	if err := json.Unmarshal([]byte(*s), &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &st, nil
}

// rollback rolls back tx and returns err joined with any rollback failure.
func rollback(tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return fmt.Errorf("%w: rollback: %v", err, rerr)
	}
	return err
}
