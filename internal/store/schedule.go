package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/synap/internal/spacedrep"
)

type scheduleRepo struct {
	s *Store
}

var scheduleColumns = []string{"item_id", "interval_days", "ease_factor", "repetitions", "next_review_at"}

func (r *scheduleRepo) Get(ctx context.Context, itemID string) (*spacedrep.State, error) {
	st, err := getSchedule(ctx, r.s.drv, itemID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return st, nil
}

func (r *scheduleRepo) Create(ctx context.Context, state spacedrep.State) (bool, error) {
	if err := state.Validate(); err != nil {
		return false, fmt.Errorf("create schedule: %w", err)
	}

	r.s.writeMu.Lock()
	defer r.s.writeMu.Unlock()

	query, args := sq.Insert("schedules").
		Columns(scheduleColumns...).
		Values(state.ItemID, state.IntervalDays, state.EaseFactor, state.Repetitions,
			formatTimePtr(state.NextReviewAt)).
		OnConflict(entsql.ConflictColumns("item_id"), entsql.DoNothing()).
		Query()
	var res sql.Result
	if err := r.s.drv.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("create schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create schedule: rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *scheduleRepo) Update(ctx context.Context, itemID string, fn func(spacedrep.State) (spacedrep.State, error)) (spacedrep.State, error) {
	r.s.writeMu.Lock()
	defer r.s.writeMu.Unlock()

	tx, err := r.s.drv.Tx(ctx)
	if err != nil {
		return spacedrep.State{}, fmt.Errorf("update schedule: begin: %w", err)
	}

	cur, err := getSchedule(ctx, tx, itemID)
	if err != nil {
		return spacedrep.State{}, rollback(tx, fmt.Errorf("update schedule: %w", err))
	}
	if cur == nil {
		return spacedrep.State{}, rollback(tx, spacedrep.ErrNotScheduled)
	}

	next, err := fn(*cur)
	if err != nil {
		return spacedrep.State{}, rollback(tx, err)
	}
	next.ItemID = itemID
	if err := next.Validate(); err != nil {
		return spacedrep.State{}, rollback(tx, fmt.Errorf("update schedule: %w", err))
	}

	query, args := sq.Update("schedules").
		Set("interval_days", next.IntervalDays).
		Set("ease_factor", next.EaseFactor).
		Set("repetitions", next.Repetitions).
		Set("next_review_at", formatTimePtr(next.NextReviewAt)).
		Where(entsql.EQ("item_id", itemID)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return spacedrep.State{}, rollback(tx, fmt.Errorf("update schedule: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return spacedrep.State{}, fmt.Errorf("update schedule: commit: %w", err)
	}
	return next, nil
}

func (r *scheduleRepo) Delete(ctx context.Context, itemID string) (bool, error) {
	r.s.writeMu.Lock()
	defer r.s.writeMu.Unlock()

	query, args := sq.Delete("schedules").Where(entsql.EQ("item_id", itemID)).Query()
	var res sql.Result
	if err := r.s.drv.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete schedule: rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *scheduleRepo) List(ctx context.Context) ([]spacedrep.State, error) {
	query, args := sq.Select(scheduleColumns...).
		From(entsql.Table("schedules")).
		OrderBy(entsql.Asc("item_id")).
		Query()
	states, err := querySchedules(ctx, r.s.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return states, nil
}

func getSchedule(ctx context.Context, q dialect.ExecQuerier, itemID string) (*spacedrep.State, error) {
	query, args := sq.Select(scheduleColumns...).
		From(entsql.Table("schedules")).
		Where(entsql.EQ("item_id", itemID)).
		Query()
	states, err := querySchedules(ctx, q, query, args)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, nil
	}
	return &states[0], nil
}

func querySchedules(ctx context.Context, q dialect.ExecQuerier, query string, args []any) ([]spacedrep.State, error) {
	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []spacedrep.State
	for rows.Next() {
		var (
			st   spacedrep.State
			next sql.NullString
		)
		if err := rows.Scan(&st.ItemID, &st.IntervalDays, &st.EaseFactor, &st.Repetitions, &next); err != nil {
			return nil, err
		}
		if next.Valid {
			t, err := ParseTime(next.String)
			if err != nil {
				return nil, err
			}
			st.NextReviewAt = &t
		}
		states = append(states, st)
	}
	return states, rows.Err()
}
