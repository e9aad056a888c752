package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/router"
	"github.com/abhisek/synap/internal/screen"
	"github.com/abhisek/synap/internal/screens/additem"
	"github.com/abhisek/synap/internal/screens/board"
	"github.com/abhisek/synap/internal/screens/reviewsession"
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/ui/components"
)

const (
	menuReview = iota
	menuBoard
	menuAdd
	menuQuit
)

type statsLoadedMsg struct {
	Stats spacedrep.Stats
	Err   error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	reviews *review.Service
	menu    components.Menu
	stats   spacedrep.Stats
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(contentSvc *content.Service, reviews *review.Service) *HomeScreen {
	push := func(build func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: build()} }
		}
	}

	items := []components.MenuItem{
		menuReview: {Label: "Review due", Action: push(func() screen.Screen {
			return reviewsession.New(reviews)
		})},
		menuBoard: {Label: "Revise board", Action: push(func() screen.Screen {
			return board.New(reviews)
		})},
		menuAdd: {Label: "Add item", Action: push(func() screen.Screen {
			return additem.New(contentSvc, reviews)
		})},
		menuQuit: {Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	}

	return &HomeScreen{
		reviews: reviews,
		menu:    components.NewMenu(items),
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats
}

// Resume refreshes the counters when returning from another screen.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadStats
}

func (h *HomeScreen) loadStats() tea.Msg {
	stats, err := h.reviews.Stats(context.Background())
	return statsLoadedMsg{Stats: stats, Err: err}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(statsLoadedMsg); ok {
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.stats = msg.Stats
		h.loaded = true
		label := "Review due"
		if msg.Stats.DueToday > 0 {
			label = fmt.Sprintf("Review due (%d)", msg.Stats.DueToday)
		}
		h.menu.SetLabel(menuReview, label)
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 20 || width < 90
	cw := contentWidth(width)

	sections := []string{
		renderTitle(cw, compact),
		renderStatsBar(h.stats, h.loaded, cw),
		renderMenu(h.menu.View(), cw),
	}
	if h.errMsg != "" {
		sections = append(sections, h.errMsg)
	}
	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
