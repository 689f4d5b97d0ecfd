// Package widgets provides reference drawables for mosaic panels. Every
// widget draws into a target already clipped to its area, starting at 0,0.
package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
)

// Alignment positions text within its line.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

func (a Alignment) position() lipgloss.Position {
	switch a {
	case AlignCenter:
		return lipgloss.Center
	case AlignRight:
		return lipgloss.Right
	default:
		return lipgloss.Left
	}
}

// SetString writes s at x,y and returns the number of columns used. Wide
// runes take two columns; writes past the target width are dropped.
func SetString(dst backend.RenderTarget, x, y int, s string, style backend.Style) int {
	w, _ := dst.Size()
	col := x
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if col+rw > w {
			break
		}
		dst.SetContent(col, y, r, nil, style)
		if rw == 2 {
			dst.SetContent(col+1, y, ' ', nil, style)
		}
		col += rw
	}
	return col - x
}

// Truncate cuts s to width columns, ending with an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(s, width, "…")
}

// Align pads a plain line to width columns. Lines wider than width are
// truncated first.
func Align(line string, width int, a Alignment) string {
	line = Truncate(line, width)
	return lipgloss.PlaceHorizontal(width, a.position(), line)
}

// Plain strips escape sequences so styled strings can be drawn cell by cell.
func Plain(s string) string {
	return ansi.Strip(s)
}

// SplitLines splits on newlines and drops trailing carriage returns.
func SplitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
