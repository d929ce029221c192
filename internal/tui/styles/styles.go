package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/servloc/internal/event"
	"github.com/Iron-Ham/servloc/locator"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	InfoColor      = lipgloss.Color("#60A5FA") // Blue
	PoisonColor    = lipgloss.Color("#FB923C") // Orange

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// Content area
	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1).
		PaddingBottom(1)

	// Footer / status bar
	StatusBar = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	// Table label column
	Label = lipgloss.NewStyle().
		Foreground(MutedColor).
		Width(24)

	// Error message
	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// Success message
	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	// Warning message
	WarningMsg = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)
)

// EventColor returns the color used to render an event type
func EventColor(eventType string) lipgloss.Color {
	switch eventType {
	case locator.EventProvided, event.TypeDriverSwapped:
		return SecondaryColor
	case locator.EventRejected:
		return WarningColor
	case locator.EventAccessFailed, event.TypeProviderError:
		return ErrorColor
	case locator.EventPoisoned:
		return PoisonColor
	case event.TypeScenarioFinished:
		return InfoColor
	default:
		return MutedColor
	}
}

// EventIcon returns an icon for an event type
func EventIcon(eventType string) string {
	switch eventType {
	case locator.EventProvided:
		return "●"
	case event.TypeDriverSwapped:
		return "↻"
	case locator.EventRejected:
		return "⊘"
	case locator.EventAccessFailed, event.TypeProviderError:
		return "✗"
	case locator.EventPoisoned:
		return "☠"
	case event.TypeScenarioFinished:
		return "✓"
	default:
		return "·"
	}
}

// ResultBadge renders PASS or FAIL for a scenario outcome
func ResultBadge(passed bool) string {
	if passed {
		return SuccessMsg.Render("PASS")
	}
	return ErrorMsg.Render("FAIL")
}
