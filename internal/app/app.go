package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/router"
	"github.com/abhisek/synap/internal/screen"
	"github.com/abhisek/synap/internal/screens/home"
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/ui/layout"
)

type statsLoadedMsg struct {
	Stats spacedrep.Stats
	Err   error
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	reviews *review.Service
	stats   spacedrep.Stats
	width   int
	height  int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(contentSvc *content.Service, reviews *review.Service) AppModel {
	return AppModel{
		router:  router.New(home.New(contentSvc, reviews)),
		reviews: reviews,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), m.loadStats)
}

func (m AppModel) loadStats() tea.Msg {
	stats, err := m.reviews.Stats(context.Background())
	return statsLoadedMsg{Stats: stats, Err: err}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statsLoadedMsg:
		// The header keeps its last good counters on error.
		if msg.Err == nil {
			m.stats = msg.Stats
		}
		return m, nil

	case screen.RefreshStatsMsg:
		return m, m.loadStats

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case router.PopScreenMsg:
		return m, tea.Batch(m.router.Update(msg), m.loadStats)
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current window size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.stats.DueToday, m.stats.Total, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(hp.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program.
func Run(contentSvc *content.Service, reviews *review.Service) error {
	p := tea.NewProgram(newAppModel(contentSvc, reviews))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
