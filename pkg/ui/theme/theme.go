// Package theme provides the colour palette shared by mosaic widgets.
// The dark palette is "Dark Elegance": rich blacks, warm text and amber
// accents.
package theme

import "github.com/odvcencio/mosaic/pkg/ui/backend"

// Theme defines the visual language for panels.
type Theme struct {
	// Core palette
	Background backend.Style // Primary canvas
	Surface    backend.Style // Elevated surfaces (popups)

	// Text hierarchy
	TextPrimary   backend.Style
	TextSecondary backend.Style
	TextMuted     backend.Style

	// Accent colors
	Accent     backend.Style
	AccentGlow backend.Style
	Coral      backend.Style
	Teal       backend.Style

	// Semantic colors
	Success backend.Style
	Warning backend.Style
	Error   backend.Style
	Info    backend.Style

	// UI elements
	Border      backend.Style
	BorderFocus backend.Style
	Title       backend.Style
	Selection   backend.Style

	// Gauge gradient
	GaugeLow   backend.Style
	GaugeMid   backend.Style
	GaugeHigh  backend.Style
	GaugeEdge  backend.Style
	GaugeEmpty backend.Style
}

func fg(r, g, b uint8) backend.Style {
	return backend.DefaultStyle().Foreground(backend.ColorRGB(r, g, b))
}

// DefaultTheme returns the Dark Elegance theme.
func DefaultTheme() *Theme {
	return &Theme{
		Background: backend.DefaultStyle().Background(backend.ColorRGB(12, 12, 16)),
		Surface:    fg(240, 238, 232).Background(backend.ColorRGB(22, 22, 28)),

		TextPrimary:   fg(240, 238, 232),
		TextSecondary: fg(160, 158, 150),
		TextMuted:     fg(100, 98, 92),

		Accent:     fg(255, 183, 77),
		AccentGlow: fg(255, 200, 100).Bold(true),
		Coral:      fg(255, 138, 101),
		Teal:       fg(77, 182, 172),

		Success: fg(134, 239, 172),
		Warning: fg(255, 138, 101),
		Error:   fg(255, 110, 90),
		Info:    fg(77, 182, 172),

		Border:      fg(50, 50, 60),
		BorderFocus: fg(255, 183, 77),
		Title:       fg(255, 183, 77).Bold(true),
		Selection:   backend.DefaultStyle().Background(backend.ColorRGB(60, 60, 80)),

		GaugeLow:   fg(134, 239, 172),
		GaugeMid:   fg(255, 183, 77),
		GaugeHigh:  fg(255, 138, 101),
		GaugeEdge:  fg(255, 200, 100).Bold(true),
		GaugeEmpty: fg(50, 50, 60),
	}
}

// LightTheme is the palette for light terminal backgrounds.
func LightTheme() *Theme {
	th := DefaultTheme()
	th.Background = backend.DefaultStyle().Background(backend.ColorRGB(250, 248, 242))
	th.Surface = fg(30, 30, 36).Background(backend.ColorRGB(236, 232, 222))
	th.TextPrimary = fg(30, 30, 36)
	th.TextSecondary = fg(90, 88, 82)
	th.TextMuted = fg(140, 138, 130)
	th.Border = fg(180, 176, 168)
	th.GaugeEmpty = fg(200, 196, 188)
	th.Accent = fg(190, 120, 20)
	th.Title = fg(190, 120, 20).Bold(true)
	th.BorderFocus = fg(190, 120, 20)
	return th
}

// Symbols provides consistent iconography.
var Symbols = struct {
	Bullet     string
	Arrow      string
	ArrowLeft  string
	ArrowRight string
	Check      string
	Dot        string
	Spinner    []string
}{
	Bullet:     "●",
	Arrow:      "›",
	ArrowLeft:  "←",
	ArrowRight: "→",
	Check:      "✓",
	Dot:        "·",
	Spinner:    []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
}
