package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/router"
	"github.com/abhisek/synap/internal/screen"
	"github.com/abhisek/synap/internal/store"
	"github.com/abhisek/synap/internal/ui/components"
	"github.com/abhisek/synap/internal/ui/layout"
	"github.com/abhisek/synap/internal/ui/theme"
)

const historyLimit = 50

type historyLoadedMsg struct {
	Events []store.ScheduleEventRecord
	Err    error
}

// HistoryScreen lists the schedule events of one item.
type HistoryScreen struct {
	reviews  *review.Service
	item     store.Item
	events   []store.ScheduleEventRecord
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen for item.
func New(reviews *review.Service, item store.Item) *HistoryScreen {
	return &HistoryScreen{
		reviews:  reviews,
		item:     item,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		events, err := s.reviews.History(context.Background(), s.item.ID, historyLimit)
		return historyLoadedMsg{Events: events, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.events = msg.Events
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, components.Keys.Back):
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case key.Matches(msg, components.Keys.Up):
			if s.selected > 0 {
				s.selected--
			}
		case key.Matches(msg, components.Keys.Down):
			if s.selected < len(s.events)-1 {
				s.selected++
			}
		case key.Matches(msg, components.Keys.Select):
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading history...")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Render(theme.Title.Render(s.item.Title)))
	b.WriteString("\n\n")

	if len(s.events) == 0 {
		b.WriteString(center.Foreground(theme.TextDim).Italic(true).Render("No reviews yet."))
		return b.String()
	}

	for i, ev := range s.events {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		when := ev.OccurredAt.Local().Format("Jan 02, 2006 15:04")

		line := fmt.Sprintf("%s%s  %-8s", prefix, when, string(ev.Kind))
		var c color.Color = theme.Text
		if ev.Quality != nil {
			line += "  " + ev.Quality.Label()
			c = theme.QualityColor(*ev.Quality)
		}
		if ev.After != nil {
			line += fmt.Sprintf("  → %dd", ev.After.IntervalDays)
		}

		style := lipgloss.NewStyle().Foreground(c)
		if i == s.selected {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(renderDetails(ev))
		}
	}
	return b.String()
}

func renderDetails(ev store.ScheduleEventRecord) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var lines []string
	switch {
	case ev.Before != nil && ev.After != nil:
		lines = append(lines,
			fmt.Sprintf("ease %.2f → %.2f", ev.Before.EaseFactor, ev.After.EaseFactor),
			fmt.Sprintf("interval %dd → %dd", ev.Before.IntervalDays, ev.After.IntervalDays),
			fmt.Sprintf("repetitions %d → %d", ev.Before.Repetitions, ev.After.Repetitions))
	case ev.After != nil:
		lines = append(lines, fmt.Sprintf("ease %.2f, interval %dd", ev.After.EaseFactor, ev.After.IntervalDays))
	case ev.Before != nil:
		lines = append(lines, fmt.Sprintf("dropped after %d repetitions", ev.Before.Repetitions))
	}
	if ev.After != nil && ev.After.NextReviewAt != nil {
		lines = append(lines, "next review "+ev.After.NextReviewAt.Local().Format("Jan 02, 2006"))
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(dim.Render("      " + l))
		b.WriteString("\n")
	}
	return b.String()
}
