package history

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/synap/internal/router"
	"github.com/abhisek/synap/internal/screens/screentest"
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/store"
)

func TestHistoryListsEvents(t *testing.T) {
	env := screentest.New(t)
	it := env.AddItem(t, "worker pools", true)
	if _, err := env.Reviews.Submit(t.Context(), it.ID, spacedrep.Hard); err != nil {
		t.Fatal(err)
	}

	s := New(env.Reviews, it)
	if !strings.Contains(s.View(100, 30), "Loading") {
		t.Error("expected loading state before data arrives")
	}
	s.Update(screentest.Run(s.Init()))

	if len(s.events) != 2 {
		t.Fatalf("events = %d, want 2", len(s.events))
	}
	if s.events[0].Kind != store.EventReviewed {
		t.Errorf("newest event kind = %q, want reviewed", s.events[0].Kind)
	}

	view := s.View(100, 30)
	for _, want := range []string{"worker pools", "reviewed", "HARD", "enabled"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "ease 2.50 → 1.96") {
		t.Error("details shown before expanding")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(s.View(100, 30), "ease 2.50 → 1.96") {
		t.Errorf("expanded view missing ease change:\n%s", s.View(100, 30))
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.selected != 1 {
		t.Errorf("selected = %d, want 1", s.selected)
	}
}

func TestHistoryEmptyAndBack(t *testing.T) {
	env := screentest.New(t)
	it := env.AddItem(t, "never scheduled", false)

	s := New(env.Reviews, it)
	s.Update(screentest.Run(s.Init()))
	if !strings.Contains(s.View(100, 30), "No reviews yet") {
		t.Error("expected empty-state message")
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if msg := screentest.Run(cmd); msg != (router.PopScreenMsg{}) {
		t.Errorf("esc = %#v, want PopScreenMsg", msg)
	}
}

func TestHistoryMissingItem(t *testing.T) {
	env := screentest.New(t)
	s := New(env.Reviews, store.Item{ID: "gone", Title: "gone"})
	s.Update(screentest.Run(s.Init()))
	if !strings.Contains(s.View(100, 30), "Error") {
		t.Error("expected error for missing item")
	}
}
