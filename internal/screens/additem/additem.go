// Package additem is the form for creating an item.
package additem

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/router"
	"github.com/abhisek/synap/internal/screen"
	"github.com/abhisek/synap/internal/store"
	"github.com/abhisek/synap/internal/ui/components"
	"github.com/abhisek/synap/internal/ui/layout"
	"github.com/abhisek/synap/internal/ui/theme"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldLink
	fieldSchedule
	fieldCount
)

var (
	prevKey   = key.NewBinding(key.WithKeys("shift+tab", "up"))
	nextKey   = key.NewBinding(key.WithKeys("tab", "down"))
	toggleKey = key.NewBinding(key.WithKeys("space"))
)

type savedMsg struct {
	Item store.Item
	Err  error
}

// AddItemScreen collects a title, description and link, and optionally
// schedules the new item for review.
type AddItemScreen struct {
	content  *content.Service
	reviews  *review.Service
	inputs   [fieldSchedule]components.TextInput
	focus    int
	schedule bool
	saving   bool
	errMsg   string
}

var _ screen.Screen = (*AddItemScreen)(nil)
var _ screen.KeyHintProvider = (*AddItemScreen)(nil)

// New creates an empty form with reviews enabled by default.
func New(contentSvc *content.Service, reviews *review.Service) *AddItemScreen {
	s := &AddItemScreen{
		content:  contentSvc,
		reviews:  reviews,
		schedule: true,
	}
	s.inputs[fieldTitle] = components.NewTextInput("Title", "What do you want to remember?", 200)
	s.inputs[fieldDescription] = components.NewTextInput("Description", "Notes shown when you reveal the card", 0)
	s.inputs[fieldLink] = components.NewTextInput("Link", "https://…", 0)
	return s
}

func (s *AddItemScreen) Init() tea.Cmd {
	return s.inputs[fieldTitle].Focus()
}

func (s *AddItemScreen) Title() string {
	return "Add item"
}

func (s *AddItemScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Space", Description: "Toggle schedule"},
		{Key: "Enter", Description: "Save"},
		{Key: "Esc", Description: "Cancel"},
	}
}

func (s *AddItemScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		s.saving = false
		if msg.Err != nil {
			s.showError(msg.Err)
			return s, nil
		}
		return s, tea.Batch(
			func() tea.Msg { return router.PopScreenMsg{} },
			screen.RefreshStats,
		)

	case tea.KeyMsg:
		if s.saving {
			return s, nil
		}
		switch {
		case key.Matches(msg, components.Keys.Back):
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case key.Matches(msg, nextKey):
			return s, s.setFocus((s.focus + 1) % fieldCount)
		case key.Matches(msg, prevKey):
			return s, s.setFocus((s.focus + fieldCount - 1) % fieldCount)
		case key.Matches(msg, components.Keys.Select):
			if s.focus < fieldLink {
				return s, s.setFocus(s.focus + 1)
			}
			return s, s.save()
		case s.focus == fieldSchedule && key.Matches(msg, toggleKey):
			s.schedule = !s.schedule
			return s, nil
		}
	}

	if s.focus < fieldSchedule {
		var cmd tea.Cmd
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *AddItemScreen) setFocus(i int) tea.Cmd {
	for f := range s.inputs {
		s.inputs[f].Blur()
	}
	s.focus = i
	if i < fieldSchedule {
		return s.inputs[i].Focus()
	}
	return nil
}

func (s *AddItemScreen) save() tea.Cmd {
	s.saving = true
	s.errMsg = ""
	title := s.inputs[fieldTitle].Value()
	desc := s.inputs[fieldDescription].Value()
	link := s.inputs[fieldLink].Value()
	schedule := s.schedule
	return func() tea.Msg {
		ctx := context.Background()
		item, err := s.content.Add(ctx, title, desc, link)
		if err != nil {
			return savedMsg{Err: err}
		}
		if schedule {
			if _, err := s.reviews.Enable(ctx, item.ID); err != nil {
				return savedMsg{Item: item, Err: err}
			}
		}
		return savedMsg{Item: item}
	}
}

func (s *AddItemScreen) showError(err error) {
	switch {
	case errors.Is(err, content.ErrTitleRequired):
		s.inputs[fieldTitle].SetError("a title is required")
		s.setFocus(fieldTitle)
	case errors.Is(err, content.ErrInvalidLink):
		s.inputs[fieldLink].SetError("links must be http(s) URLs")
		s.setFocus(fieldLink)
	default:
		s.errMsg = err.Error()
	}
}

func (s *AddItemScreen) View(width, height int) string {
	formWidth := min(width-8, 70)
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var fields []string
	for _, in := range s.inputs {
		fields = append(fields, in.View())
	}

	box := "[ ]"
	if s.schedule {
		box = "[x]"
	}
	toggle := box + " Schedule reviews"
	if s.focus == fieldSchedule {
		fields = append(fields, theme.Selected.Render(toggle))
	} else {
		fields = append(fields, theme.Unselected.Render(toggle))
	}

	form := theme.Card.Width(formWidth).Render(strings.Join(fields, "\n\n"))

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Render(form))
	if s.saving {
		b.WriteString("\n\n" + center.Render(theme.Hint.Render("Saving...")))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n" + center.Render(theme.ErrorText.Render(s.errMsg)))
	}
	return b.String()
}
