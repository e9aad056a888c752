package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/synap/internal/spacedrep"
)

// Color palette: calm, low-contrast, readable for long review sessions.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	Section = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// BucketColor returns the accent color for a revise-board bucket.
func BucketColor(b spacedrep.Bucket) color.Color {
	switch b {
	case spacedrep.BucketDue:
		return Error
	case spacedrep.BucketWeek:
		return Accent
	default:
		return Secondary
	}
}

// QualityColor returns the color used to show a grade.
func QualityColor(q spacedrep.Quality) color.Color {
	switch {
	case q >= spacedrep.Good:
		return Success
	case q == spacedrep.Hard:
		return Accent
	default:
		return Error
	}
}
