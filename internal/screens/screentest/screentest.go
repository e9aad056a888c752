// Package screentest wires real services over a throwaway SQLite store for
// screen tests.
package screentest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/lock"
	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/store"
)

// Now is the fixed clock reading used by Env.
var Now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// Env bundles the services a screen needs.
type Env struct {
	Content *content.Service
	Reviews *review.Service
	Clock   time.Time
}

// New opens a store in t.TempDir and builds services on a clock that reads
// env.Clock.
func New(t *testing.T) *Env {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "screen.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	env := &Env{Clock: Now}
	clock := func() time.Time { return env.Clock }
	env.Content = content.NewService(s.ItemRepo(), zap.NewNop(), clock)
	env.Reviews = review.NewService(s, lock.NewLocal(), zap.NewNop(), clock)
	return env
}

// AddItem creates an item and, when schedule is set, enables its reviews.
func (e *Env) AddItem(t *testing.T, title string, schedule bool) store.Item {
	t.Helper()
	ctx := context.Background()
	it, err := e.Content.Add(ctx, title, title+" notes", "")
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if schedule {
		if _, err := e.Reviews.Enable(ctx, it.ID); err != nil {
			t.Fatalf("enable: %v", err)
		}
	}
	return it
}

// Key builds a key press for a printable rune.
func Key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// Run executes cmd and returns its message, or nil for a nil command.
func Run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}
