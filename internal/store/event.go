package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/synap/internal/spacedrep"
)

type eventRepo struct {
	s *Store
}

var eventColumns = []string{"sequence", "occurred_at", "kind", "item_id", "quality", "before_state", "after_state"}

func (r *eventRepo) AppendScheduleEvent(ctx context.Context, data ScheduleEventData) error {
	before, err := EncodeState(data.Before)
	if err != nil {
		return fmt.Errorf("append schedule event: %w", err)
	}
	after, err := EncodeState(data.After)
	if err != nil {
		return fmt.Errorf("append schedule event: %w", err)
	}
	var quality any
	if data.Quality != nil {
		quality = int(*data.Quality)
	}

	r.s.writeMu.Lock()
	defer r.s.writeMu.Unlock()

	query, args := sq.Insert("schedule_events").
		Columns(eventColumns[1:]...).
		Values(FormatTime(data.OccurredAt), string(data.Kind), data.ItemID, quality, before, after).
		Query()
	if err := r.s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("append schedule event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryScheduleEvents(ctx context.Context, itemID string, opts QueryOpts) ([]ScheduleEventRecord, error) {
	sel := sq.Select(eventColumns...).
		From(entsql.Table("schedule_events")).
		OrderBy(entsql.Desc("sequence"))
	if itemID != "" {
		sel.Where(entsql.EQ("item_id", itemID))
	}
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("occurred_at", FormatTime(opts.From)))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("occurred_at", FormatTime(opts.To)))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query schedule events: %w", err)
	}
	defer rows.Close()

	var records []ScheduleEventRecord
	for rows.Next() {
		var (
			rec           ScheduleEventRecord
			ts, kind      string
			quality       sql.NullInt64
			before, after sql.NullString
			err           error
		)
		if err := rows.Scan(&rec.Sequence, &ts, &kind, &rec.ItemID, &quality, &before, &after); err != nil {
			return nil, fmt.Errorf("query schedule events: scan: %w", err)
		}
		rec.Kind = EventKind(kind)
		if rec.OccurredAt, err = ParseTime(ts); err != nil {
			return nil, fmt.Errorf("query schedule events: %w", err)
		}
		if quality.Valid {
			q := spacedrep.Quality(quality.Int64)
			rec.Quality = &q
		}
		if rec.Before, err = DecodeState(nullString(before)); err != nil {
			return nil, fmt.Errorf("query schedule events: %w", err)
		}
		if rec.After, err = DecodeState(nullString(after)); err != nil {
			return nil, fmt.Errorf("query schedule events: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query schedule events: %w", err)
	}
	return records, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
