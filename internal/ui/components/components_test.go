package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

type pickedMsg struct{ label string }

func pick(label string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return pickedMsg{label} }
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Review due", Disabled: true},
		{Label: "Revise board", Action: pick("board")},
		{Label: "Locked", Disabled: true},
		{Label: "Quit", Action: pick("quit")},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("after down = %d, want 3", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("down at bottom moved selection to %d", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: 'k', Text: "k"})
	if m.Selected != 1 {
		t.Errorf("after k = %d, want 1", m.Selected)
	}

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command from enter")
	}
	if got := cmd().(pickedMsg); got.label != "board" {
		t.Errorf("picked %q, want board", got.label)
	}
}

func TestMenuViewMarksSelection(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "One"}, {Label: "Two"}})
	m.SetLabel(1, "Two (3)")
	view := m.View()
	if !strings.Contains(view, "▸ One") {
		t.Errorf("selected item not marked:\n%s", view)
	}
	if !strings.Contains(view, "Two (3)") {
		t.Errorf("relabelled item missing:\n%s", view)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 0, 0},
		{1, 4, 0.25},
		{5, 4, 1},
	}
	for _, tt := range tests {
		p := NewProgressBar("Review", tt.done, tt.total, 40)
		if got := p.Percent(); got != tt.want {
			t.Errorf("Percent(%d/%d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
	if view := NewProgressBar("", 2, 7, 40).View(); !strings.Contains(view, "2/7") {
		t.Errorf("view missing counter: %q", view)
	}
}

func TestTextInput(t *testing.T) {
	ti := NewTextInput("Title", "What to remember", 0)
	if ti.Focused() {
		t.Fatal("input should start blurred")
	}

	// Blurred inputs ignore keys.
	ti, _ = ti.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if ti.Value() != "" {
		t.Errorf("blurred input accepted text: %q", ti.Value())
	}

	ti.Focus()
	ti.SetError("title is required")
	for _, r := range "gc" {
		ti, _ = ti.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	if ti.Value() != "gc" {
		t.Errorf("Value = %q, want gc", ti.Value())
	}
	if ti.Err() != "" {
		t.Errorf("edit did not clear error: %q", ti.Err())
	}
	if !strings.Contains(ti.View(), "Title") {
		t.Error("view missing label")
	}
}
