// Package ui provides the visual styling for the mergelytics CLI.
// Uses the Mergelytics brand palette with light/dark mode support.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette based on the Mergelytics dashboard styling
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f6f7f8") // hsl(210, 8%, 97%)
	LightForeground = lipgloss.Color("#0d2137") // Deep Navy - hsl(210, 62%, 13%)
	LightPrimary    = lipgloss.Color("#0d2137") // Deep Navy
	LightAccent     = lipgloss.Color("#26a69a") // Teal - hsl(174, 63%, 40%)
	LightSecondary  = lipgloss.Color("#e2e6ea") // hsl(210, 16%, 90%)
	LightMuted      = lipgloss.Color("#8a97a5") // hsl(211, 13%, 59%)
	LightBorder     = lipgloss.Color("#d8dde2") // hsl(210, 15%, 87%)
	LightCard       = lipgloss.Color("#ffffff") // White

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#101b28") // hsl(212, 43%, 11%)
	DarkForeground = lipgloss.Color("#eceff1") // hsl(200, 15%, 94%)
	DarkPrimary    = lipgloss.Color("#26a69a") // Teal (flipped)
	DarkAccent     = lipgloss.Color("#0d2137") // Deep Navy (flipped)
	DarkSecondary  = lipgloss.Color("#1b2838") // Darker navy
	DarkMuted      = lipgloss.Color("#5c6b7a") // Muted slate
	DarkBorder     = lipgloss.Color("#2b3a4d") // Border dark
	DarkCard       = lipgloss.Color("#182738") // Card dark

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935") // Red
	Success     = lipgloss.Color("#43a047") // Green
	Warning     = lipgloss.Color("#ffb300") // Amber
	Info        = lipgloss.Color("#1e88e5") // Blue
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme auto-detects based on terminal hints or returns light mode.
// TODO: Use muesli/termenv for background detection instead of COLORFGBG.
func DetectTheme() Theme {
	// Format is usually "foreground;background"; ANSI backgrounds 0-6
	// and 8 are dark.
	colorTerm := os.Getenv("COLORFGBG")
	if colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}

	if os.Getenv("MERGELYTICS_DARK_MODE") == "1" {
		return DarkTheme()
	}

	return LightTheme()
}

// ThemeByName resolves a configured theme name; "auto" and unknown
// names fall back to detection.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Content lipgloss.Style
	Footer  lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Workspace entries
	DirEntry  lipgloss.Style
	FileEntry lipgloss.Style
	Digest    lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Badge   lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		DirEntry: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		FileEntry: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Digest: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// DefaultStyles returns styles with the auto-detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// NoColorStyles returns styles that emit no color sequences, honoring
// NO_COLOR and --no-color.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Theme:     Theme{},
		Header:    plain.Padding(0, 2),
		Content:   plain.Padding(1, 2),
		Footer:    plain.Padding(0, 2),
		Title:     plain.MarginBottom(1),
		Subtitle:  plain,
		Body:      plain,
		Muted:     plain,
		Bold:      plain,
		Success:   plain,
		Error:     plain,
		Warning:   plain,
		Info:      plain,
		DirEntry:  plain,
		FileEntry: plain,
		Digest:    plain,
		Spinner:   plain,
		Badge:     plain.Padding(0, 1),
		Divider:   plain,
	}
}

// Wordmark returns the Mergelytics banner
func Wordmark(s Styles) string {
	mark := `
  __  __                     _      _   _
 |  \/  |___ _ _ __ _ ___  | |_  _| |_(_)__ ___
 | |\/| / -_) '_/ _` + "`" + ` / -_) | | || |  _| / _(_-<
 |_|  |_\___|_| \__, \___| |_|\_, |\__|_\__/__/
                |___/         |__/
`
	return s.Title.Foreground(s.Theme.Primary).Render(mark)
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("─", width))
}
