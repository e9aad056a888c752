package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/ui/theme"
)

const logoFull = `┌─┐┬ ┬┌┐┌┌─┐┌─┐
└─┐└┬┘│││├─┤├─┘
└─┘ ┴ ┘└┘┴ ┴┴  `

const logoCompact = "S · Y · N · A · P"

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 60)
}

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	logo := logoFull
	if compact {
		logo = logoCompact
	}
	tagline := theme.Subtitle.Render("remember what you read")
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(logo) + "\n" + tagline)
}

// renderStatsBar shows the due counters in a bordered box.
func renderStatsBar(stats spacedrep.Stats, loaded bool, cw int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	if !loaded {
		return statsBox(cw).Render(dim.Render("loading…"))
	}

	dueStyle := dim
	if stats.DueToday > 0 {
		dueStyle = lipgloss.NewStyle().Foreground(theme.BucketColor(spacedrep.BucketDue)).Bold(true)
	}
	parts := []string{
		dueStyle.Render(fmt.Sprintf("%d today", stats.DueToday)),
		lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("%d tomorrow", stats.DueTomorrow)),
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("%d this week", stats.DueThisWeek)),
		dim.Render(fmt.Sprintf("%d total", stats.Total)),
	}
	return statsBox(cw).Render(strings.Join(parts, dim.Render("  ·  ")))
}

func statsBox(cw int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1)
}

func renderMenu(menu string, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(lipgloss.NewStyle().Align(lipgloss.Left).Render(menu))
}

// renderFrame centres content in the available area.
func renderFrame(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
