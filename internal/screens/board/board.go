// Package board shows every scheduled item grouped into due, this week and
// later.
package board

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/router"
	"github.com/abhisek/synap/internal/screen"
	"github.com/abhisek/synap/internal/screens/history"
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/ui/components"
	"github.com/abhisek/synap/internal/ui/layout"
	"github.com/abhisek/synap/internal/ui/theme"
)

var disableKey = key.NewBinding(
	key.WithKeys("d"),
	key.WithHelp("d", "Unschedule"),
)

type boardLoadedMsg struct {
	Board review.Board
	Err   error
}

type disabledMsg struct {
	Err error
}

type row struct {
	bucket spacedrep.Bucket
	entry  review.Entry
}

// BoardScreen is the revise view.
type BoardScreen struct {
	reviews  *review.Service
	rows     []row
	counts   map[spacedrep.Bucket]int
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*BoardScreen)(nil)
var _ screen.KeyHintProvider = (*BoardScreen)(nil)
var _ screen.Resumer = (*BoardScreen)(nil)

// New creates a new BoardScreen.
func New(reviews *review.Service) *BoardScreen {
	return &BoardScreen{reviews: reviews}
}

func (s *BoardScreen) Init() tea.Cmd {
	return s.load
}

// Resume reloads the board after a pushed screen is popped.
func (s *BoardScreen) Resume() tea.Cmd {
	return s.load
}

func (s *BoardScreen) load() tea.Msg {
	b, err := s.reviews.Revise(context.Background())
	return boardLoadedMsg{Board: b, Err: err}
}

func (s *BoardScreen) Title() string {
	return "Revise"
}

func (s *BoardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "History"},
		{Key: "d", Description: "Unschedule"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *BoardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.setBoard(msg.Board)
		return s, nil

	case disabledMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, tea.Batch(s.load, screen.RefreshStats)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, components.Keys.Back):
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case key.Matches(msg, components.Keys.Up):
			if s.selected > 0 {
				s.selected--
			}
		case key.Matches(msg, components.Keys.Down):
			if s.selected < len(s.rows)-1 {
				s.selected++
			}
		case key.Matches(msg, components.Keys.Select):
			if it, ok := s.Selected(); ok {
				return s, func() tea.Msg {
					return router.PushScreenMsg{Screen: history.New(s.reviews, it.Item)}
				}
			}
		case key.Matches(msg, disableKey):
			if it, ok := s.Selected(); ok {
				return s, func() tea.Msg {
					return disabledMsg{Err: s.reviews.Disable(context.Background(), it.Item.ID)}
				}
			}
		}
	}
	return s, nil
}

// Selected returns the highlighted entry.
func (s *BoardScreen) Selected() (review.Entry, bool) {
	if s.selected < 0 || s.selected >= len(s.rows) {
		return review.Entry{}, false
	}
	return s.rows[s.selected].entry, true
}

func (s *BoardScreen) setBoard(b review.Board) {
	s.rows = s.rows[:0]
	s.counts = map[spacedrep.Bucket]int{
		spacedrep.BucketDue:   len(b.Due),
		spacedrep.BucketWeek:  len(b.Week),
		spacedrep.BucketLater: len(b.Later),
	}
	for _, group := range []struct {
		bucket  spacedrep.Bucket
		entries []review.Entry
	}{
		{spacedrep.BucketDue, b.Due},
		{spacedrep.BucketWeek, b.Week},
		{spacedrep.BucketLater, b.Later},
	} {
		for _, e := range group.entries {
			s.rows = append(s.rows, row{bucket: group.bucket, entry: e})
		}
	}
	if s.selected >= len(s.rows) {
		s.selected = max(len(s.rows)-1, 0)
	}
}

var bucketTitles = map[spacedrep.Bucket]string{
	spacedrep.BucketDue:   "Due",
	spacedrep.BucketWeek:  "This week",
	spacedrep.BucketLater: "Later",
}

func (s *BoardScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" && !s.loaded {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading board...")
	}
	if len(s.rows) == 0 {
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\n  Nothing scheduled yet. Add an item and enable reviews.")
	}

	listWidth := min(width-4, 90)
	var b strings.Builder
	b.WriteString("\n")

	var current spacedrep.Bucket
	for i, r := range s.rows {
		if r.bucket != current {
			current = r.bucket
			if i > 0 {
				b.WriteString("\n")
			}
			heading := lipgloss.NewStyle().Foreground(theme.BucketColor(current)).Bold(true).
				Render(fmt.Sprintf("%s (%d)", bucketTitles[current], s.counts[current]))
			b.WriteString("  " + heading + "\n")
		}

		prefix := "    "
		style := theme.Unselected
		if i == s.selected {
			prefix = "  ▸ "
			style = theme.Selected
		}
		due := lipgloss.NewStyle().Foreground(theme.TextDim).Render(r.entry.NextReview)
		title := style.Render(prefix + truncate(r.entry.Item.Title, listWidth-30))
		gap := listWidth - lipgloss.Width(title) - lipgloss.Width(due)
		if gap < 2 {
			gap = 2
		}
		b.WriteString(title + strings.Repeat(" ", gap) + due + "\n")
	}

	if s.errMsg != "" {
		b.WriteString("\n  " + theme.ErrorText.Render(s.errMsg) + "\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if n < 1 {
		n = 1
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
