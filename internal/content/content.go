// Package content manages the items that can be scheduled for review.
package content

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/store"
)

var (
	ErrNotFound      = errors.New("content: item not found")
	ErrTitleRequired = errors.New("content: title is required")
	ErrInvalidLink   = errors.New("content: link must be an absolute http(s) URL")
)

// Service validates and stores items.
type Service struct {
	items  store.ItemRepo
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a content service. A nil clock uses time.Now.
func NewService(items store.ItemRepo, logger *zap.Logger, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{items: items, logger: logger, now: clock}
}

// Add creates a new item. The title is trimmed and must not be empty.
func (s *Service) Add(ctx context.Context, title, description, link string) (store.Item, error) {
	fields, err := normalize(title, description, link)
	if err != nil {
		return store.Item{}, err
	}

	now := s.now().UTC()
	item := store.Item{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Link:        fields.Link,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return store.Item{}, fmt.Errorf("add item: %w", err)
	}
	s.logger.Info("item added", zap.String("item_id", item.ID))
	return item, nil
}

// Update replaces the item's title, description and link, applying the
// same rules as Add. The schedule and history are left alone.
func (s *Service) Update(ctx context.Context, id, title, description, link string) (store.Item, error) {
	fields, err := normalize(title, description, link)
	if err != nil {
		return store.Item{}, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return store.Item{}, err
	}

	item.Title = fields.Title
	item.Description = fields.Description
	item.Link = fields.Link
	item.UpdatedAt = s.now().UTC()
	ok, err := s.items.Update(ctx, item)
	if err != nil {
		return store.Item{}, fmt.Errorf("update item: %w", err)
	}
	if !ok {
		return store.Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Info("item updated", zap.String("item_id", id))
	return item, nil
}

// Get returns the item or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (store.Item, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return store.Item{}, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return store.Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *item, nil
}

// List returns items newest first, at most limit when limit > 0.
func (s *Service) List(ctx context.Context, limit int) ([]store.Item, error) {
	items, err := s.items.List(ctx, store.QueryOpts{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []store.Item{}
	}
	return items, nil
}

// Delete removes the item, its schedule and its history.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.items.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Info("item deleted", zap.String("item_id", id))
	return nil
}

// normalize trims the user-entered fields and validates them.
func normalize(title, description, link string) (store.Item, error) {
	it := store.Item{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Link:        strings.TrimSpace(link),
	}
	if it.Title == "" {
		return store.Item{}, ErrTitleRequired
	}
	if it.Link != "" {
		if err := validateLink(it.Link); err != nil {
			return store.Item{}, err
		}
	}
	return it, nil
}

func validateLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidLink, link)
	}
	return nil
}
