package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/synap/internal/spacedrep"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateItem(t *testing.T, s *Store, id string, created time.Time) Item {
	t.Helper()
	it := Item{ID: id, Title: "title " + id, CreatedAt: created, UpdatedAt: created}
	if err := s.ItemRepo().Create(context.Background(), it); err != nil {
		t.Fatalf("create item %s: %v", id, err)
	}
	return it
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Driver() == nil {
		t.Fatal("expected non-nil driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{"items", "schedules", "schedule_events"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table name = %q, want %q", name, table)
		}
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestItemCreateGetList(t *testing.T) {
	s := openTestStore(t)
	repo := s.ItemRepo()
	ctx := context.Background()

	got, err := repo.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("get (missing): %v", err)
	}
	if got != nil {
		t.Fatal("expected nil item when none exists")
	}

	for i := 0; i < 3; i++ {
		mustCreateItem(t, s, string(rune('a'+i)), t0.Add(time.Duration(i)*time.Minute))
	}

	got, err = repo.Get(ctx, "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "title b" {
		t.Fatalf("get = %+v, want title b", got)
	}
	if !got.CreatedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, t0.Add(time.Minute))
	}

	items, err := repo.List(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 || items[0].ID != "c" || items[2].ID != "a" {
		t.Errorf("list order = %v, want newest first", items)
	}

	items, err = repo.List(ctx, QueryOpts{Limit: 2, To: t0.Add(time.Minute)})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" {
		t.Errorf("filtered list = %v, want [b a]", items)
	}
}

func TestItemCreateDuplicate(t *testing.T) {
	s := openTestStore(t)
	mustCreateItem(t, s, "a", t0)
	err := s.ItemRepo().Create(context.Background(), Item{ID: "a", Title: "again", CreatedAt: t0, UpdatedAt: t0})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestItemUpdate(t *testing.T) {
	s := openTestStore(t)
	repo := s.ItemRepo()
	ctx := context.Background()
	mustCreateItem(t, s, "a", t0)

	edited := Item{ID: "a", Title: "renamed", Description: "notes", Link: "https://go.dev", UpdatedAt: t0.Add(time.Hour)}
	ok, err := repo.Update(ctx, edited)
	if err != nil || !ok {
		t.Fatalf("update = %v, %v; want true, nil", ok, err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "renamed" || got.Description != "notes" || got.Link != "https://go.dev" {
		t.Errorf("get = %+v, want edited fields", got)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("created_at = %v, want unchanged %v", got.CreatedAt, t0)
	}
	if !got.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, t0.Add(time.Hour))
	}

	ok, err = repo.Update(ctx, Item{ID: "missing", Title: "x", UpdatedAt: t0})
	if err != nil || ok {
		t.Errorf("update missing = %v, %v; want false, nil", ok, err)
	}
}

func TestItemDeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateItem(t, s, "a", t0)

	st := spacedrep.Initialize(t0)
	st.ItemID = "a"
	if _, err := s.ScheduleRepo().Create(ctx, st); err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if err := s.EventRepo().AppendScheduleEvent(ctx, ScheduleEventData{
		Kind: EventEnabled, ItemID: "a", OccurredAt: t0, After: &st,
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	ok, err := s.ItemRepo().Delete(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v; want true, nil", ok, err)
	}
	if got, _ := s.ScheduleRepo().Get(ctx, "a"); got != nil {
		t.Error("schedule should be deleted with its item")
	}
	events, err := s.EventRepo().QueryScheduleEvents(ctx, "a", QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}

	ok, err = s.ItemRepo().Delete(ctx, "a")
	if err != nil || ok {
		t.Errorf("second delete = %v, %v; want false, nil", ok, err)
	}
}

func TestScheduleCreateGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.ScheduleRepo()
	ctx := context.Background()
	mustCreateItem(t, s, "a", t0)

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get (unscheduled): %v", err)
	}
	if got != nil {
		t.Fatal("expected nil schedule before enable")
	}

	st := spacedrep.Initialize(t0)
	st.ItemID = "a"
	created, err := repo.Create(ctx, st)
	if err != nil || !created {
		t.Fatalf("create = %v, %v; want true, nil", created, err)
	}

	// A second create keeps the existing row.
	other := st
	other.IntervalDays = 30
	created, err = repo.Create(ctx, other)
	if err != nil || created {
		t.Fatalf("second create = %v, %v; want false, nil", created, err)
	}

	got, err = repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IntervalDays != 1 || got.EaseFactor != 2.5 || got.Repetitions != 0 {
		t.Errorf("get = %+v, want initial state", got)
	}
	if got.NextReviewAt == nil || !got.NextReviewAt.Equal(*st.NextReviewAt) {
		t.Errorf("next_review_at = %v, want %v", got.NextReviewAt, st.NextReviewAt)
	}
}

func TestScheduleCreateRejectsInvalidState(t *testing.T) {
	s := openTestStore(t)
	mustCreateItem(t, s, "a", t0)
	_, err := s.ScheduleRepo().Create(context.Background(), spacedrep.State{ItemID: "a", IntervalDays: 0, EaseFactor: 2.5})
	if !errors.Is(err, spacedrep.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestScheduleCreateRequiresItem(t *testing.T) {
	s := openTestStore(t)
	st := spacedrep.Initialize(t0)
	st.ItemID = "ghost"
	if _, err := s.ScheduleRepo().Create(context.Background(), st); err == nil {
		t.Error("expected foreign key error for unknown item")
	}
}

func TestScheduleUpdate(t *testing.T) {
	s := openTestStore(t)
	repo := s.ScheduleRepo()
	ctx := context.Background()
	mustCreateItem(t, s, "a", t0)

	_, err := repo.Update(ctx, "a", func(st spacedrep.State) (spacedrep.State, error) {
		return st, nil
	})
	if !errors.Is(err, spacedrep.ErrNotScheduled) {
		t.Fatalf("update unscheduled err = %v, want ErrNotScheduled", err)
	}

	st := spacedrep.Initialize(t0)
	st.ItemID = "a"
	if _, err := repo.Create(ctx, st); err != nil {
		t.Fatalf("create: %v", err)
	}

	next, err := repo.Update(ctx, "a", func(cur spacedrep.State) (spacedrep.State, error) {
		return spacedrep.Update(cur, spacedrep.Good, t0)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if next.IntervalDays != 6 || next.Repetitions != 1 {
		t.Errorf("update = %+v, want interval 6, reps 1", next)
	}

	got, _ := repo.Get(ctx, "a")
	if got.IntervalDays != 6 || got.Repetitions != 1 {
		t.Errorf("stored = %+v, want interval 6, reps 1", got)
	}
}

func TestScheduleUpdateAbortsOnError(t *testing.T) {
	s := openTestStore(t)
	repo := s.ScheduleRepo()
	ctx := context.Background()
	mustCreateItem(t, s, "a", t0)

	st := spacedrep.Initialize(t0)
	st.ItemID = "a"
	if _, err := repo.Create(ctx, st); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := repo.Update(ctx, "a", func(cur spacedrep.State) (spacedrep.State, error) {
		return spacedrep.Update(cur, spacedrep.Quality(9), t0)
	})
	if !errors.Is(err, spacedrep.ErrInvalidQuality) {
		t.Fatalf("err = %v, want ErrInvalidQuality", err)
	}

	got, _ := repo.Get(ctx, "a")
	if got.IntervalDays != 1 || got.Repetitions != 0 {
		t.Errorf("stored = %+v, want unchanged", got)
	}
}

func TestScheduleUpdateConcurrent(t *testing.T) {
	s := openTestStore(t)
	repo := s.ScheduleRepo()
	ctx := context.Background()
	mustCreateItem(t, s, "a", t0)

	st := spacedrep.Initialize(t0)
	st.ItemID = "a"
	if _, err := repo.Create(ctx, st); err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, "a", func(cur spacedrep.State) (spacedrep.State, error) {
				return spacedrep.Update(cur, spacedrep.Good, t0)
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent update: %v", err)
		}
	}

	got, _ := repo.Get(ctx, "a")
	if got.Repetitions != n {
		t.Errorf("repetitions = %d, want %d (lost update)", got.Repetitions, n)
	}
}

func TestScheduleDeleteAndList(t *testing.T) {
	s := openTestStore(t)
	repo := s.ScheduleRepo()
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		mustCreateItem(t, s, id, t0)
		st := spacedrep.Initialize(t0)
		st.ItemID = id
		if _, err := repo.Create(ctx, st); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ItemID != "a" {
		t.Errorf("list = %v, want [a b]", all)
	}

	ok, err := repo.Delete(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	ok, err = repo.Delete(ctx, "a")
	if err != nil || ok {
		t.Errorf("second delete = %v, %v; want false, nil", ok, err)
	}

	all, _ = repo.List(ctx)
	if len(all) != 1 {
		t.Errorf("len(list) = %d, want 1", len(all))
	}
}

func TestScheduleEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	st := spacedrep.Initialize(t0)
	st.ItemID = "a"
	q := spacedrep.Easy
	after, _ := spacedrep.Update(st, q, t0.Add(time.Hour))

	events := []ScheduleEventData{
		{Kind: EventEnabled, ItemID: "a", OccurredAt: t0, After: &st},
		{Kind: EventReviewed, ItemID: "a", OccurredAt: t0.Add(time.Hour), Quality: &q, Before: &st, After: &after},
		{Kind: EventEnabled, ItemID: "b", OccurredAt: t0.Add(2 * time.Hour), After: &st},
		{Kind: EventDisabled, ItemID: "a", OccurredAt: t0.Add(3 * time.Hour), Before: &after},
	}
	for i, e := range events {
		if err := repo.AppendScheduleEvent(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := repo.QueryScheduleEvents(ctx, "a", QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Kind != EventDisabled || got[2].Kind != EventEnabled {
		t.Errorf("order = %v,%v,%v; want newest first", got[0].Kind, got[1].Kind, got[2].Kind)
	}
	rev := got[1]
	if rev.Quality == nil || *rev.Quality != spacedrep.Easy {
		t.Errorf("quality = %v, want easy", rev.Quality)
	}
	if rev.Before == nil || rev.After == nil || rev.After.Repetitions != 1 {
		t.Errorf("before/after = %+v / %+v", rev.Before, rev.After)
	}
	if got[0].After != nil {
		t.Error("disabled event should have no after state")
	}

	all, err := repo.QueryScheduleEvents(ctx, "", QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 2 || all[0].Sequence <= all[1].Sequence {
		t.Errorf("limited query = %+v", all)
	}

	ranged, err := repo.QueryScheduleEvents(ctx, "", QueryOpts{
		From: t0.Add(30 * time.Minute),
		To:   t0.Add(150 * time.Minute),
	})
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("ranged len = %d, want 2", len(ranged))
	}

	paged, err := repo.QueryScheduleEvents(ctx, "", QueryOpts{Before: all[1].Sequence})
	if err != nil {
		t.Fatalf("query before: %v", err)
	}
	if len(paged) != 2 {
		t.Errorf("paged len = %d, want 2", len(paged))
	}
}

func TestFormatTimeSortsLexically(t *testing.T) {
	a := FormatTime(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	b := FormatTime(time.Date(2025, 1, 2, 3, 4, 5, 100, time.UTC))
	if !(a < b) {
		t.Errorf("%q should sort before %q", a, b)
	}
	loc := time.FixedZone("X", 5*3600)
	c := FormatTime(time.Date(2025, 1, 2, 8, 4, 5, 0, loc))
	if c != a {
		t.Errorf("FormatTime should normalize to UTC: %q != %q", c, a)
	}
	back, err := ParseTime(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !back.Equal(time.Date(2025, 1, 2, 3, 4, 5, 100, time.UTC)) {
		t.Errorf("round trip = %v", back)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SYNAP_DB", filepath.Join(dir, "nested", "x.db"))
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "nested", "x.db") {
		t.Errorf("path = %q", p)
	}

	t.Setenv("SYNAP_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "synap", "synap.db") {
		t.Errorf("path = %q", p)
	}
}
