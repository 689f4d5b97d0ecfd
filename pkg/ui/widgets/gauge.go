package widgets

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/theme"
)

// GaugeStyle defines the visual appearance of a gauge.
type GaugeStyle struct {
	// Fill characters
	FillChar  rune // Filled portion (default '█')
	EmptyChar rune // Empty portion (default '░')

	// Gradient thresholds and styles (ascending order)
	// Each threshold defines the ratio at which a new color begins
	Thresholds []GaugeThreshold

	// EmptyStyle for unfilled portion
	EmptyStyle backend.Style

	// EdgeStyle for the leading edge (optional glow effect)
	EdgeStyle backend.Style
}

// GaugeThreshold defines a color breakpoint in the gradient.
type GaugeThreshold struct {
	Ratio float64       // Start ratio for this color (0.0-1.0)
	Style backend.Style // Style for this segment
}

// DefaultGaugeStyle returns a green→amber→coral gradient gauge.
func DefaultGaugeStyle(green, amber, coral, edge, empty backend.Style) GaugeStyle {
	return GaugeStyle{
		FillChar:  '█',
		EmptyChar: '░',
		Thresholds: []GaugeThreshold{
			{Ratio: 0.0, Style: green},
			{Ratio: 0.6, Style: amber},
			{Ratio: 0.85, Style: coral},
		},
		EmptyStyle: empty,
		EdgeStyle:  edge,
	}
}

// ThemeGaugeStyle builds the default gradient from a theme.
func ThemeGaugeStyle(th *theme.Theme) GaugeStyle {
	return DefaultGaugeStyle(th.GaugeLow, th.GaugeMid, th.GaugeHigh, th.GaugeEdge, th.GaugeEmpty)
}

func clampRatio(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func fillWidth(width int, ratio float64) int {
	return min(int(float64(width)*clampRatio(ratio)+0.5), width)
}

func (s GaugeStyle) chars() (fill, empty rune) {
	fill, empty = s.FillChar, s.EmptyChar
	if fill == 0 {
		fill = '█'
	}
	if empty == 0 {
		empty = '░'
	}
	return fill, empty
}

// DrawGauge renders a horizontal gauge bar with gradient fill into dst.
// ratio: 0.0-1.0 fill percentage
// width: total width in characters
func DrawGauge(dst backend.RenderTarget, x, y, width int, ratio float64, style GaugeStyle) {
	if dst == nil || width <= 0 {
		return
	}

	fill := fillWidth(width, ratio)
	fillChar, emptyChar := style.chars()

	for i := 0; i < width; i++ {
		if i < fill {
			cellRatio := float64(i) / float64(width)
			cellStyle := styleForRatio(cellRatio, style.Thresholds)

			// Apply edge style to leading edge
			if i == fill-1 && style.EdgeStyle != (backend.Style{}) {
				cellStyle = style.EdgeStyle
			}
			dst.SetContent(x+i, y, fillChar, nil, cellStyle)
		} else {
			dst.SetContent(x+i, y, emptyChar, nil, style.EmptyStyle)
		}
	}
}

// DrawGaugeString renders a gauge and returns it as a string (for inline use).
func DrawGaugeString(width int, ratio float64, style GaugeStyle) string {
	if width <= 0 {
		return ""
	}

	fill := fillWidth(width, ratio)
	fillChar, emptyChar := style.chars()

	runes := make([]rune, width)
	for i := 0; i < width; i++ {
		if i < fill {
			runes[i] = fillChar
		} else {
			runes[i] = emptyChar
		}
	}
	return string(runes)
}

// styleForRatio returns the style for a given position ratio based on thresholds.
func styleForRatio(ratio float64, thresholds []GaugeThreshold) backend.Style {
	if len(thresholds) == 0 {
		return backend.DefaultStyle()
	}

	// Find the highest threshold that ratio meets or exceeds
	result := thresholds[0].Style
	for _, t := range thresholds {
		if ratio >= t.Ratio {
			result = t.Style
		}
	}
	return result
}

// Gauge is a one-line progress bar with a centered percentage label,
// optionally inside a block. The bar sits on the middle row.
type Gauge struct {
	Ratio      float64
	Label      string // defaults to the percentage
	LabelStyle backend.Style
	Style      GaugeStyle
	Block      *Block
}

// Draw paints the gauge.
func (g Gauge) Draw(dst backend.RenderTarget) {
	w, h := dst.Size()
	area := backend.NewRect(0, 0, w, h)
	if g.Block != nil {
		g.Block.Draw(dst)
		area = g.Block.Inner(w, h)
	}
	if area.Empty() {
		return
	}

	y := area.Y + area.Height/2
	DrawGauge(dst, area.X, y, area.Width, g.Ratio, g.Style)

	label := g.Label
	if label == "" {
		label = fmt.Sprintf("%d%%", int(clampRatio(g.Ratio)*100+0.5))
	}
	label = Truncate(label, area.Width)
	x := area.X + (area.Width-runewidth.StringWidth(label))/2
	SetString(backend.NewSubTarget(dst, 0, y, area.X+area.Width, 1), x, 0, label, g.LabelStyle)
}
