package review

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/lock"
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/store"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc     *Service
	content *content.Service
	now     time.Time
}

func (e *testEnv) clock() time.Time { return e.now }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	env := &testEnv{now: t0}
	env.svc = NewService(s, lock.NewLocal(), zap.NewNop(), env.clock)
	env.content = content.NewService(s.ItemRepo(), zap.NewNop(), env.clock)
	return env
}

func (e *testEnv) addItem(t *testing.T, title string) store.Item {
	t.Helper()
	it, err := e.content.Add(context.Background(), title, "", "")
	require.NoError(t, err)
	return it
}

func TestEnable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	it := env.addItem(t, "closures")

	st, err := env.svc.Enable(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.ID, st.ItemID)
	assert.Equal(t, 1, st.IntervalDays)
	assert.Equal(t, 2.5, st.EaseFactor)
	assert.Equal(t, 0, st.Repetitions)
	assert.True(t, st.NextReviewAt.Equal(t0.Add(spacedrep.Day)))

	// Enabling again later keeps the original schedule.
	env.now = t0.Add(72 * time.Hour)
	again, err := env.svc.Enable(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, again.NextReviewAt.Equal(*st.NextReviewAt))

	_, err = env.svc.Enable(ctx, "no-such-item")
	assert.True(t, errors.Is(err, content.ErrNotFound), "err = %v", err)
}

func TestSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	it := env.addItem(t, "channels")

	_, err := env.svc.Submit(ctx, it.ID, spacedrep.Good)
	assert.True(t, errors.Is(err, spacedrep.ErrNotScheduled), "err = %v", err)

	_, err = env.svc.Enable(ctx, it.ID)
	require.NoError(t, err)

	wantIntervals := []int{6, 6, 9}
	for i, want := range wantIntervals {
		st, err := env.svc.Submit(ctx, it.ID, spacedrep.Good)
		require.NoError(t, err)
		assert.Equal(t, want, st.IntervalDays, "review %d", i+1)
		assert.Equal(t, i+1, st.Repetitions)
		assert.True(t, st.NextReviewAt.Equal(env.now.Add(time.Duration(want)*spacedrep.Day)))
		env.now = *st.NextReviewAt
	}

	st, err := env.svc.Submit(ctx, it.ID, spacedrep.Forgot)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Repetitions)
	assert.Equal(t, 1, st.IntervalDays)
}

func TestSubmit_MissingItemIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, "no-such-item", spacedrep.Good)
	assert.True(t, errors.Is(err, content.ErrNotFound), "err = %v", err)
	assert.False(t, errors.Is(err, spacedrep.ErrNotScheduled), "a missing item is not an unscheduled one")

	_, statusErr := env.svc.Status(ctx, "no-such-item")
	assert.True(t, errors.Is(statusErr, content.ErrNotFound))
}

func TestSubmit_InvalidQualityLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	it := env.addItem(t, "generics")
	before, err := env.svc.Enable(ctx, it.ID)
	require.NoError(t, err)

	for _, q := range []spacedrep.Quality{-1, 5, 7} {
		_, err := env.svc.Submit(ctx, it.ID, q)
		assert.True(t, errors.Is(err, spacedrep.ErrInvalidQuality), "q=%d err = %v", q, err)
	}

	status, err := env.svc.Status(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, status.State)
	assert.Equal(t, before.Repetitions, status.State.Repetitions)
	assert.Equal(t, before.EaseFactor, status.State.EaseFactor)
}

func TestSubmit_ConcurrentReviewsAllApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	it := env.addItem(t, "mutexes")
	_, err := env.svc.Enable(ctx, it.ID)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Submit(ctx, it.ID, spacedrep.Easy)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	status, err := env.svc.Status(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, n, status.State.Repetitions)
	assert.LessOrEqual(t, status.State.IntervalDays, spacedrep.MaxIntervalDays)

	history, err := env.svc.History(ctx, it.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, n+1)
}

func TestDisableAndStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	it := env.addItem(t, "interfaces")

	status, err := env.svc.Status(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Equal(t, "Not scheduled", status.NextReview)

	require.NoError(t, env.svc.Disable(ctx, it.ID), "disabling an unscheduled item is a no-op")

	_, err = env.svc.Enable(ctx, it.ID)
	require.NoError(t, err)

	status, err = env.svc.Status(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.False(t, status.DueToday)
	assert.Equal(t, "Due tomorrow", status.NextReview)

	env.now = t0.Add(25 * time.Hour)
	status, err = env.svc.Status(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, status.DueToday)

	require.NoError(t, env.svc.Disable(ctx, it.ID))
	status, err = env.svc.Status(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.State)

	_, err = env.svc.Submit(ctx, it.ID, spacedrep.Good)
	assert.True(t, errors.Is(err, spacedrep.ErrNotScheduled))

	assert.True(t, errors.Is(env.svc.Disable(ctx, "missing"), content.ErrNotFound))
	_, err = env.svc.Status(ctx, "missing")
	assert.True(t, errors.Is(err, content.ErrNotFound))
}

func TestReviseDueAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// a: reviewed Easy twice -> next in 6 days (week bucket).
	// b: enabled only -> due tomorrow (week bucket today, due tomorrow).
	// c: enabled two days ago -> overdue.
	// d: not scheduled -> appears nowhere.
	a := env.addItem(t, "a")
	b := env.addItem(t, "b")
	c := env.addItem(t, "c")
	env.addItem(t, "d")

	env.now = t0.Add(-48 * time.Hour)
	_, err := env.svc.Enable(ctx, c.ID)
	require.NoError(t, err)

	env.now = t0
	for _, id := range []string{a.ID, b.ID} {
		_, err := env.svc.Enable(ctx, id)
		require.NoError(t, err)
	}
	_, err = env.svc.Submit(ctx, a.ID, spacedrep.Easy)
	require.NoError(t, err)

	board, err := env.svc.Revise(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, board.Len())
	require.Len(t, board.Due, 1)
	assert.Equal(t, c.ID, board.Due[0].Item.ID)
	assert.Equal(t, "c", board.Due[0].Item.Title)
	require.Len(t, board.Week, 2)
	assert.Equal(t, b.ID, board.Week[0].Item.ID, "earliest first")
	assert.Equal(t, a.ID, board.Week[1].Item.ID)
	assert.Equal(t, "Due tomorrow", board.Week[0].NextReview)
	assert.Equal(t, "Due in 6 days", board.Week[1].NextReview)
	assert.Equal(t, "1 day overdue", board.Due[0].NextReview)
	assert.Empty(t, board.Later)

	due, err := env.svc.Due(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, c.ID, due[0].Item.ID)

	stats, err := env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, spacedrep.Stats{DueToday: 1, DueTomorrow: 1, DueThisWeek: 2, Total: 3}, stats)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	it := env.addItem(t, "select")

	_, err := env.svc.Enable(ctx, it.ID)
	require.NoError(t, err)
	env.now = t0.Add(time.Hour)
	_, err = env.svc.Submit(ctx, it.ID, spacedrep.Hard)
	require.NoError(t, err)
	env.now = t0.Add(2 * time.Hour)
	require.NoError(t, env.svc.Disable(ctx, it.ID))

	events, err := env.svc.History(ctx, it.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, store.EventDisabled, events[0].Kind)
	assert.Equal(t, store.EventReviewed, events[1].Kind)
	assert.Equal(t, store.EventEnabled, events[2].Kind)

	rev := events[1]
	require.NotNil(t, rev.Quality)
	assert.Equal(t, spacedrep.Hard, *rev.Quality)
	require.NotNil(t, rev.Before)
	require.NotNil(t, rev.After)
	assert.Equal(t, 2.5, rev.Before.EaseFactor)
	assert.InDelta(t, 1.96, rev.After.EaseFactor, 1e-9)
	assert.True(t, rev.OccurredAt.Equal(t0.Add(time.Hour)))

	limited, err := env.svc.History(ctx, it.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = env.svc.History(ctx, "missing", 0)
	assert.True(t, errors.Is(err, content.ErrNotFound))
}
