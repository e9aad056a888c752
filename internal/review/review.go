// Package review drives the spacedrep engine against stored items: it owns
// the clock, the per-item locks and the event history.
package review

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/lock"
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/store"
)

// Status describes an item's review schedule.
type Status struct {
	ItemID     string           `json:"item_id"`
	Enabled    bool             `json:"enabled"`
	State      *spacedrep.State `json:"state,omitempty"`
	DueToday   bool             `json:"due_today"`
	NextReview string           `json:"next_review"`
}

// Entry joins a schedule with its item.
type Entry struct {
	Item       store.Item      `json:"item"`
	State      spacedrep.State `json:"state"`
	NextReview string          `json:"next_review"`
}

// Board is the revise view: scheduled items grouped by how soon they are due.
type Board struct {
	Due   []Entry `json:"due"`
	Week  []Entry `json:"week"`
	Later []Entry `json:"later"`
}

// Len returns the number of entries on the board.
func (b Board) Len() int {
	return len(b.Due) + len(b.Week) + len(b.Later)
}

// Service schedules and grades reviews.
type Service struct {
	items     store.ItemRepo
	schedules store.ScheduleRepo
	events    store.EventRepo
	locker    lock.Locker
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a review service over backend. A nil clock uses
// time.Now.
func NewService(backend store.Backend, locker lock.Locker, logger *zap.Logger, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		items:     backend.ItemRepo(),
		schedules: backend.ScheduleRepo(),
		events:    backend.EventRepo(),
		locker:    locker,
		logger:    logger,
		now:       clock,
	}
}

// Enable starts scheduling the item. Enabling an already scheduled item
// returns its current state unchanged.
func (s *Service) Enable(ctx context.Context, itemID string) (spacedrep.State, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return spacedrep.State{}, err
	}

	unlock, err := s.locker.Lock(ctx, itemID)
	if err != nil {
		return spacedrep.State{}, fmt.Errorf("enable review: lock: %w", err)
	}
	defer unlock()

	if cur, err := s.schedules.Get(ctx, itemID); err != nil {
		return spacedrep.State{}, fmt.Errorf("enable review: %w", err)
	} else if cur != nil {
		return *cur, nil
	}

	now := s.now()
	st := spacedrep.Initialize(now)
	st.ItemID = itemID
	created, err := s.schedules.Create(ctx, st)
	if err != nil {
		return spacedrep.State{}, fmt.Errorf("enable review: %w", err)
	}
	if !created {
		// Another process enabled it between our read and insert.
		cur, err := s.schedules.Get(ctx, itemID)
		if err != nil {
			return spacedrep.State{}, fmt.Errorf("enable review: reload: %w", err)
		}
		if cur == nil {
			return spacedrep.State{}, fmt.Errorf("enable review: %w", spacedrep.ErrNotScheduled)
		}
		return *cur, nil
	}

	s.appendEvent(ctx, store.ScheduleEventData{
		Kind: store.EventEnabled, ItemID: itemID, OccurredAt: now, After: &st,
	})
	s.logger.Info("review enabled",
		zap.String("item_id", itemID),
		zap.Time("next_review_at", *st.NextReviewAt))
	return st, nil
}

// Disable stops scheduling the item and discards its state. Disabling an
// unscheduled item is a no-op.
func (s *Service) Disable(ctx context.Context, itemID string) error {
	if err := s.requireItem(ctx, itemID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, itemID)
	if err != nil {
		return fmt.Errorf("disable review: lock: %w", err)
	}
	defer unlock()

	cur, err := s.schedules.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("disable review: %w", err)
	}
	if cur == nil {
		return nil
	}
	if _, err := s.schedules.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("disable review: %w", err)
	}

	s.appendEvent(ctx, store.ScheduleEventData{
		Kind: store.EventDisabled, ItemID: itemID, OccurredAt: s.now(), Before: cur,
	})
	s.logger.Info("review disabled", zap.String("item_id", itemID))
	return nil
}

// Status reports whether the item is scheduled and when it is next due.
func (s *Service) Status(ctx context.Context, itemID string) (Status, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return Status{}, err
	}
	cur, err := s.schedules.Get(ctx, itemID)
	if err != nil {
		return Status{}, fmt.Errorf("review status: %w", err)
	}

	now := s.now()
	st := Status{ItemID: itemID, NextReview: spacedrep.TimeUntil(nil, now)}
	if cur == nil {
		return st, nil
	}
	st.Enabled = true
	st.State = cur
	st.DueToday = spacedrep.IsDueToday(*cur, now)
	st.NextReview = spacedrep.TimeUntil(cur.NextReviewAt, now)
	return st, nil
}

// Submit grades a review of the item and stores the resulting schedule.
func (s *Service) Submit(ctx context.Context, itemID string, q spacedrep.Quality) (spacedrep.State, error) {
	if !q.IsValid() {
		return spacedrep.State{}, fmt.Errorf("%w: %d", spacedrep.ErrInvalidQuality, int(q))
	}
	if err := s.requireItem(ctx, itemID); err != nil {
		return spacedrep.State{}, err
	}

	unlock, err := s.locker.Lock(ctx, itemID)
	if err != nil {
		return spacedrep.State{}, fmt.Errorf("submit review: lock: %w", err)
	}
	defer unlock()

	now := s.now()
	var before spacedrep.State
	next, err := s.schedules.Update(ctx, itemID, func(cur spacedrep.State) (spacedrep.State, error) {
		before = cur
		return spacedrep.Update(cur, q, now)
	})
	if err != nil {
		return spacedrep.State{}, fmt.Errorf("submit review: %w", err)
	}

	s.appendEvent(ctx, store.ScheduleEventData{
		Kind: store.EventReviewed, ItemID: itemID, OccurredAt: now,
		Quality: &q, Before: &before, After: &next,
	})
	s.logger.Info("review submitted",
		zap.String("item_id", itemID),
		zap.Stringer("quality", q),
		zap.Int("interval_days", next.IntervalDays),
		zap.Float64("ease_factor", next.EaseFactor))
	return next, nil
}

// Revise groups every scheduled item into due, week and later.
func (s *Service) Revise(ctx context.Context) (Board, error) {
	states, items, err := s.load(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("revise: %w", err)
	}
	now := s.now()
	b := spacedrep.Classify(states, now)
	return Board{
		Due:   join(b.Due, items, now),
		Week:  join(b.Week, items, now),
		Later: join(b.Later, items, now),
	}, nil
}

// Due returns the items due by the end of today, earliest first.
func (s *Service) Due(ctx context.Context) ([]Entry, error) {
	states, items, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("due: %w", err)
	}
	now := s.now()
	return join(spacedrep.GetDue(states, now), items, now), nil
}

// Stats counts scheduled items by due date.
func (s *Service) Stats(ctx context.Context) (spacedrep.Stats, error) {
	states, err := s.schedules.List(ctx)
	if err != nil {
		return spacedrep.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return spacedrep.ComputeStats(states, s.now()), nil
}

// History returns the item's schedule events, newest first.
func (s *Service) History(ctx context.Context, itemID string, limit int) ([]store.ScheduleEventRecord, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	events, err := s.events.QueryScheduleEvents(ctx, itemID, store.QueryOpts{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if events == nil {
		events = []store.ScheduleEventRecord{}
	}
	return events, nil
}

func (s *Service) requireItem(ctx context.Context, itemID string) error {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("%w: %s", content.ErrNotFound, itemID)
	}
	return nil
}

func (s *Service) load(ctx context.Context) ([]spacedrep.State, map[string]store.Item, error) {
	states, err := s.schedules.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.items.List(ctx, store.QueryOpts{})
	if err != nil {
		return nil, nil, err
	}
	items := make(map[string]store.Item, len(list))
	for _, it := range list {
		items[it.ID] = it
	}
	return states, items, nil
}

// appendEvent records history. The schedule change has already been
// committed, so a failure here is logged rather than returned.
func (s *Service) appendEvent(ctx context.Context, data store.ScheduleEventData) {
	if err := s.events.AppendScheduleEvent(ctx, data); err != nil {
		s.logger.Warn("append schedule event failed",
			zap.String("item_id", data.ItemID),
			zap.String("kind", string(data.Kind)),
			zap.Error(err))
	}
}

func join(states []spacedrep.State, items map[string]store.Item, now time.Time) []Entry {
	out := make([]Entry, 0, len(states))
	for _, st := range states {
		it, ok := items[st.ItemID]
		if !ok {
			continue
		}
		out = append(out, Entry{
			Item:       it,
			State:      st,
			NextReview: spacedrep.TimeUntil(st.NextReviewAt, now),
		})
	}
	return out
}
