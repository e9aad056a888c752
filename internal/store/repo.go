package store

import (
	"context"
	"time"

	"github.com/abhisek/synap/internal/spacedrep"
)

// QueryOpts configures list queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Item is a captured piece of knowledge that can be scheduled for review.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Link        string    `json:"link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemRepo stores the reviewable items themselves.
type ItemRepo interface {
	// Create inserts a new item.
	Create(ctx context.Context, item Item) error

	// Get returns the item, or nil if it does not exist.
	Get(ctx context.Context, id string) (*Item, error)

	// List returns items newest first. From/To filter on creation time.
	List(ctx context.Context, opts QueryOpts) ([]Item, error)

	// Update overwrites the item's title, description, link and updated_at.
	// Reports whether the item existed.
	Update(ctx context.Context, item Item) (bool, error)

	// Delete removes the item together with its schedule and events.
	// Reports whether the item existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// ScheduleRepo stores one spacedrep.State per scheduled item.
type ScheduleRepo interface {
	// Get returns the item's schedule, or nil if the item is not scheduled.
	Get(ctx context.Context, itemID string) (*spacedrep.State, error)

	// Create inserts the schedule unless one already exists for the item.
	// Reports whether a row was inserted.
	Create(ctx context.Context, state spacedrep.State) (bool, error)

	// Update runs fn on the current schedule and stores its result in the
	// same transaction. Returns spacedrep.ErrNotScheduled when the item has
	// no schedule; an error from fn aborts the transaction and is returned.
	Update(ctx context.Context, itemID string, fn func(spacedrep.State) (spacedrep.State, error)) (spacedrep.State, error)

	// Delete removes the schedule. Reports whether one existed.
	Delete(ctx context.Context, itemID string) (bool, error)

	// List returns every stored schedule.
	List(ctx context.Context) ([]spacedrep.State, error)
}

// EventKind identifies what happened to an item's schedule.
type EventKind string

const (
	EventEnabled  EventKind = "enabled"
	EventReviewed EventKind = "reviewed"
	EventDisabled EventKind = "disabled"
)

// ScheduleEventData captures one change to an item's schedule.
type ScheduleEventData struct {
	Kind       EventKind          `json:"kind"`
	ItemID     string             `json:"item_id"`
	OccurredAt time.Time          `json:"occurred_at"`
	Quality    *spacedrep.Quality `json:"quality,omitempty"` // set for EventReviewed
	Before     *spacedrep.State   `json:"before,omitempty"`  // nil for EventEnabled
	After      *spacedrep.State   `json:"after,omitempty"`   // nil for EventDisabled
}

// ScheduleEventRecord is a stored schedule event.
type ScheduleEventRecord struct {
	Sequence int64 `json:"sequence"`
	ScheduleEventData
}

// EventRepo provides append and query access to schedule events.
type EventRepo interface {
	// AppendScheduleEvent records a schedule change.
	AppendScheduleEvent(ctx context.Context, data ScheduleEventData) error

	// QueryScheduleEvents returns events newest first. An empty itemID
	// returns events for all items.
	QueryScheduleEvents(ctx context.Context, itemID string, opts QueryOpts) ([]ScheduleEventRecord, error)
}

// Backend bundles the repositories of one storage engine.
type Backend interface {
	ItemRepo() ItemRepo
	ScheduleRepo() ScheduleRepo
	EventRepo() EventRepo
	Close() error
}
