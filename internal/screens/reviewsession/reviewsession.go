// Package reviewsession implements the flashcard loop over today's due items.
package reviewsession

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
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/ui/components"
	"github.com/abhisek/synap/internal/ui/layout"
	"github.com/abhisek/synap/internal/ui/theme"
)

type phase int

const (
	phaseLoading phase = iota
	phaseAsk
	phaseRevealed
	phaseDone
)

type dueLoadedMsg struct {
	Entries []review.Entry
	Err     error
}

type gradedMsg struct {
	Entry   review.Entry
	Quality spacedrep.Quality
	State   spacedrep.State
	Err     error
}

// Result is one graded card.
type Result struct {
	Title      string
	Quality    spacedrep.Quality
	NextReview string
}

// ReviewScreen walks through the due items one card at a time.
type ReviewScreen struct {
	reviews    *review.Service
	entries    []review.Entry
	current    int
	phase      phase
	submitting bool
	results    []Result
	errMsg     string
}

var _ screen.Screen = (*ReviewScreen)(nil)
var _ screen.KeyHintProvider = (*ReviewScreen)(nil)

// New creates a review session screen.
func New(reviews *review.Service) *ReviewScreen {
	return &ReviewScreen{reviews: reviews}
}

func (s *ReviewScreen) Init() tea.Cmd {
	return func() tea.Msg {
		entries, err := s.reviews.Due(context.Background())
		return dueLoadedMsg{Entries: entries, Err: err}
	}
}

func (s *ReviewScreen) Title() string {
	return "Review"
}

func (s *ReviewScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseAsk:
		return []layout.KeyHint{
			{Key: "Space", Description: "Reveal"},
			{Key: "0-4", Description: "Grade"},
			{Key: "Esc", Description: "Stop"},
		}
	case phaseRevealed:
		return []layout.KeyHint{
			{Key: "0-4", Description: "Grade"},
			{Key: "Esc", Description: "Stop"},
		}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Done"},
			{Key: "Esc", Description: "Back"},
		}
	}
}

// Results returns the cards graded so far.
func (s *ReviewScreen) Results() []Result {
	return s.results
}

func (s *ReviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case dueLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			s.phase = phaseDone
			return s, nil
		}
		s.entries = msg.Entries
		s.phase = phaseAsk
		if len(s.entries) == 0 {
			s.phase = phaseDone
		}
		return s, nil

	case gradedMsg:
		s.submitting = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.results = append(s.results, Result{
			Title:      msg.Entry.Item.Title,
			Quality:    msg.Quality,
			NextReview: fmt.Sprintf("%d %s", msg.State.IntervalDays, dayWord(msg.State.IntervalDays)),
		})
		s.current++
		s.phase = phaseAsk
		if s.current >= len(s.entries) {
			s.phase = phaseDone
		}
		return s, screen.RefreshStats

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *ReviewScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if key.Matches(msg, components.Keys.Back) {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.submitting {
		return s, nil
	}

	switch s.phase {
	case phaseAsk, phaseRevealed:
		switch {
		case key.Matches(msg, components.Keys.Reveal):
			s.phase = phaseRevealed
		case key.Matches(msg, components.Keys.Grade):
			q, err := spacedrep.ParseQuality(msg.String())
			if err != nil {
				return s, nil
			}
			return s, s.grade(q)
		}
	case phaseDone:
		if key.Matches(msg, components.Keys.Select) {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *ReviewScreen) grade(q spacedrep.Quality) tea.Cmd {
	entry := s.entries[s.current]
	s.submitting = true
	return func() tea.Msg {
		st, err := s.reviews.Submit(context.Background(), entry.Item.ID, q)
		return gradedMsg{Entry: entry, Quality: q, State: st, Err: err}
	}
}

func (s *ReviewScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	switch {
	case s.phase == phaseLoading:
		return center.Foreground(theme.TextDim).Render("\n\nLoading due items...")
	case s.phase == phaseDone && len(s.entries) == 0 && s.errMsg == "":
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\nNothing is due today. Come back tomorrow!")
	case s.phase == phaseDone:
		return s.renderSummary(width)
	}

	cardWidth := min(width-8, 72)
	entry := s.entries[s.current]

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Render(components.NewProgressBar("Progress", s.current, len(s.entries), cardWidth).View()))
	b.WriteString("\n\n")

	body := theme.Title.Render(entry.Item.Title) + "\n" +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(entry.NextReview)
	if s.phase == phaseRevealed {
		if entry.Item.Description != "" {
			body += "\n\n" + theme.Body.Render(entry.Item.Description)
		}
		if entry.Item.Link != "" {
			body += "\n\n" + lipgloss.NewStyle().Foreground(theme.Secondary).Underline(true).Render(entry.Item.Link)
		}
	} else {
		body += "\n\n" + theme.Hint.Render("Recall it, then press space to check.")
	}
	card := theme.Card.Width(cardWidth).Render(body)
	b.WriteString(center.Render(card))
	b.WriteString("\n\n")

	for _, q := range spacedrep.AllQualities() {
		line := lipgloss.NewStyle().Foreground(theme.QualityColor(q)).Bold(true).
			Render(fmt.Sprintf("%d %-9s", int(q), q.Label())) +
			"  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(q.Description())
		b.WriteString(center.Render(lipgloss.NewStyle().Width(cardWidth).Render(line)))
		b.WriteString("\n")
	}

	if s.errMsg != "" {
		b.WriteString("\n" + center.Render(theme.ErrorText.Render(s.errMsg)))
	}
	return b.String()
}

func (s *ReviewScreen) renderSummary(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Render(theme.Title.Render("Session complete")))
	b.WriteString("\n")
	b.WriteString(center.Render(theme.Subtitle.Render(
		fmt.Sprintf("%d of %d reviewed", len(s.results), len(s.entries)))))
	b.WriteString("\n\n")

	var lapses int
	for _, r := range s.results {
		if r.Quality.IsLapse() {
			lapses++
		}
		line := fmt.Sprintf("%-40s %s  next in %s",
			truncate(r.Title, 40),
			lipgloss.NewStyle().Foreground(theme.QualityColor(r.Quality)).Render(fmt.Sprintf("%-9s", r.Quality.Label())),
			r.NextReview)
		b.WriteString(center.Render(line))
		b.WriteString("\n")
	}
	if lapses > 0 {
		b.WriteString("\n" + center.Render(theme.Hint.Render(
			fmt.Sprintf("%d to relearn tomorrow", lapses))))
	}
	if s.errMsg != "" {
		b.WriteString("\n" + center.Render(theme.ErrorText.Render(s.errMsg)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func dayWord(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
