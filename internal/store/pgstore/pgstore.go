// Package pgstore is the PostgreSQL store.Backend, for deployments where
// several synap servers share one database.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/store"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

var pg = entsql.Dialect(dialect.Postgres)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

var _ store.Backend = (*Store)(nil)

// New creates a Store with a pgx connection pool.
func New(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("PostgreSQL connected")
	return &Store{db: pool, logger: logger}, nil
}

// Migrate executes the embedded .up.sql files in name order.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := migrations.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		s.logger.Info("Migration applied", zap.String("file", f))
	}
	return nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.db
}

// Close shuts down the connection pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) ItemRepo() store.ItemRepo         { return &itemRepo{db: s.db} }
func (s *Store) ScheduleRepo() store.ScheduleRepo { return &scheduleRepo{db: s.db} }
func (s *Store) EventRepo() store.EventRepo       { return &eventRepo{db: s.db} }

// --- items ---

type itemRepo struct {
	db *pgxpool.Pool
}

var itemColumns = []string{"id", "title", "description", "link", "created_at", "updated_at"}

func (r *itemRepo) Create(ctx context.Context, item store.Item) error {
	query, args := pg.Insert("items").
		Columns(itemColumns...).
		Values(item.ID, item.Title, item.Description, item.Link, item.CreatedAt.UTC(), item.UpdatedAt.UTC()).
		Query()
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *itemRepo) Get(ctx context.Context, id string) (*store.Item, error) {
	query, args := pg.Select(itemColumns...).
		From(entsql.Table("items")).
		Where(entsql.EQ("id", id)).
		Query()
	var it store.Item
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&it.ID, &it.Title, &it.Description, &it.Link, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	normalizeItem(&it)
	return &it, nil
}

func (r *itemRepo) List(ctx context.Context, opts store.QueryOpts) ([]store.Item, error) {
	sel := pg.Select(itemColumns...).
		From(entsql.Table("items")).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("created_at", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("created_at", opts.To.UTC()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Link, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list items: scan: %w", err)
		}
		normalizeItem(&it)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *itemRepo) Update(ctx context.Context, item store.Item) (bool, error) {
	query, args := pg.Update("items").
		Set("title", item.Title).
		Set("description", item.Description).
		Set("link", item.Link).
		Set("updated_at", item.UpdatedAt.UTC()).
		Where(entsql.EQ("id", item.ID)).
		Query()
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *itemRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query, args := pg.Delete("schedule_events").Where(entsql.EQ("item_id", id)).Query()
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
		query, args = pg.Delete("items").Where(entsql.EQ("id", id)).Query()
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	return deleted, nil
}

func normalizeItem(it *store.Item) {
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
}

// --- schedules ---

type scheduleRepo struct {
	db *pgxpool.Pool
}

var scheduleColumns = []string{"item_id", "interval_days", "ease_factor", "repetitions", "next_review_at"}

func (r *scheduleRepo) Get(ctx context.Context, itemID string) (*spacedrep.State, error) {
	query, args := pg.Select(scheduleColumns...).
		From(entsql.Table("schedules")).
		Where(entsql.EQ("item_id", itemID)).
		Query()
	st, err := scanState(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &st, nil
}

func (r *scheduleRepo) Create(ctx context.Context, state spacedrep.State) (bool, error) {
	if err := state.Validate(); err != nil {
		return false, fmt.Errorf("create schedule: %w", err)
	}
	query, args := pg.Insert("schedules").
		Columns(scheduleColumns...).
		Values(state.ItemID, state.IntervalDays, state.EaseFactor, state.Repetitions, utcPtr(state.NextReviewAt)).
		OnConflict(entsql.ConflictColumns("item_id"), entsql.DoNothing()).
		Query()
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("create schedule: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Update locks the schedule row with SELECT ... FOR UPDATE so concurrent
// reviews of the same item from different processes apply one after the
// other.
func (r *scheduleRepo) Update(ctx context.Context, itemID string, fn func(spacedrep.State) (spacedrep.State, error)) (spacedrep.State, error) {
	var next spacedrep.State
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query, args := pg.Select(scheduleColumns...).
			From(entsql.Table("schedules")).
			Where(entsql.EQ("item_id", itemID)).
			ForUpdate().
			Query()
		cur, err := scanState(tx.QueryRow(ctx, query, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return spacedrep.ErrNotScheduled
		}
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}

		next, err = fn(cur)
		if err != nil {
			return err
		}
		next.ItemID = itemID
		if err := next.Validate(); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}

		query, args = pg.Update("schedules").
			Set("interval_days", next.IntervalDays).
			Set("ease_factor", next.EaseFactor).
			Set("repetitions", next.Repetitions).
			Set("next_review_at", utcPtr(next.NextReviewAt)).
			Where(entsql.EQ("item_id", itemID)).
			Query()
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return spacedrep.State{}, err
	}
	return next, nil
}

func (r *scheduleRepo) Delete(ctx context.Context, itemID string) (bool, error) {
	query, args := pg.Delete("schedules").Where(entsql.EQ("item_id", itemID)).Query()
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *scheduleRepo) List(ctx context.Context) ([]spacedrep.State, error) {
	query, args := pg.Select(scheduleColumns...).
		From(entsql.Table("schedules")).
		OrderBy(entsql.Asc("item_id")).
		Query()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var states []spacedrep.State
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("list schedules: scan: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

func scanState(row pgx.Row) (spacedrep.State, error) {
	var (
		st   spacedrep.State
		next *time.Time
	)
	if err := row.Scan(&st.ItemID, &st.IntervalDays, &st.EaseFactor, &st.Repetitions, &next); err != nil {
		return spacedrep.State{}, err
	}
	st.NextReviewAt = utcPtr(next)
	return st, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// --- events ---

type eventRepo struct {
	db *pgxpool.Pool
}

var eventColumns = []string{"sequence", "occurred_at", "kind", "item_id", "quality", "before_state", "after_state"}

func (r *eventRepo) AppendScheduleEvent(ctx context.Context, data store.ScheduleEventData) error {
	before, err := store.EncodeState(data.Before)
	if err != nil {
		return fmt.Errorf("append schedule event: %w", err)
	}
	after, err := store.EncodeState(data.After)
	if err != nil {
		return fmt.Errorf("append schedule event: %w", err)
	}
	var quality *int
	if data.Quality != nil {
		q := int(*data.Quality)
		quality = &q
	}

	query, args := pg.Insert("schedule_events").
		Columns(eventColumns[1:]...).
		Values(data.OccurredAt.UTC(), string(data.Kind), data.ItemID, quality, before, after).
		Query()
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append schedule event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryScheduleEvents(ctx context.Context, itemID string, opts store.QueryOpts) ([]store.ScheduleEventRecord, error) {
	sel := pg.Select(eventColumns...).
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
		sel.Where(entsql.GTE("occurred_at", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("occurred_at", opts.To.UTC()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule events: %w", err)
	}
	defer rows.Close()

	var records []store.ScheduleEventRecord
	for rows.Next() {
		var (
			rec           store.ScheduleEventRecord
			kind          string
			quality       *int
			before, after []byte
		)
		if err := rows.Scan(&rec.Sequence, &rec.OccurredAt, &kind, &rec.ItemID, &quality, &before, &after); err != nil {
			return nil, fmt.Errorf("query schedule events: scan: %w", err)
		}
		rec.Kind = store.EventKind(kind)
		rec.OccurredAt = rec.OccurredAt.UTC()
		if quality != nil {
			q := spacedrep.Quality(*quality)
			rec.Quality = &q
		}
		if rec.Before, err = store.DecodeState(bytesPtr(before)); err != nil {
			return nil, fmt.Errorf("query schedule events: %w", err)
		}
		if rec.After, err = store.DecodeState(bytesPtr(after)); err != nil {
			return nil, fmt.Errorf("query schedule events: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query schedule events: %w", err)
	}
	return records, nil
}

func bytesPtr(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}
