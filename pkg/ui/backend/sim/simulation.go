// Package sim provides a simulation backend for testing and headless runs.
package sim

import (
	"strings"
	"sync"

	tcellv2 "github.com/gdamore/tcell/v2"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/backend/tcell"
	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

// Backend is a testable backend using tcell's simulation screen.
//
// Captures read the presented (front) buffer, so a frame whose Show failed
// is never visible in a capture.
type Backend struct {
	*tcell.Backend
	screen tcellv2.SimulationScreen

	mu        sync.Mutex
	showErr   error
	showCount int
}

// New creates a new simulation backend with the given dimensions.
func New(width, height int) *Backend {
	screen := tcellv2.NewSimulationScreen("UTF-8")
	screen.SetSize(width, height)

	return &Backend{
		Backend: tcell.NewWithScreen(screen),
		screen:  screen,
	}
}

// Init initializes the simulation screen and re-applies its size, which
// tcell resets during Init.
func (s *Backend) Init() error {
	w, h := s.screen.Size()
	if err := s.Backend.Init(); err != nil {
		return err
	}
	if w > 0 && h > 0 {
		s.screen.SetSize(w, h)
	}
	return nil
}

// Show presents the frame unless a failure has been injected.
func (s *Backend) Show() error {
	s.mu.Lock()
	err := s.showErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.Backend.Show(); err != nil {
		return err
	}
	s.mu.Lock()
	s.showCount++
	s.mu.Unlock()
	return nil
}

// FailShow makes every following Show return err. Pass nil to recover.
func (s *Backend) FailShow(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showErr = err
}

// ShowCount reports how many frames were successfully presented.
func (s *Backend) ShowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showCount
}

// Resize changes the simulation screen size.
func (s *Backend) Resize(width, height int) {
	s.screen.SetSize(width, height)
}

// InjectKey injects a key event into the simulation.
func (s *Backend) InjectKey(key terminal.Key, r rune) {
	_ = s.PostEvent(terminal.KeyEvent{Key: key, Rune: r})
}

// InjectKeyRune injects a regular character keypress.
func (s *Backend) InjectKeyRune(r rune) {
	s.InjectKey(terminal.KeyRune, r)
}

// InjectKeyString injects a string as a sequence of key events.
func (s *Backend) InjectKeyString(str string) {
	for _, r := range str {
		s.InjectKeyRune(r)
	}
}

// InjectResize injects a resize event.
func (s *Backend) InjectResize(width, height int) {
	s.screen.SetSize(width, height)
	_ = s.PostEvent(terminal.ResizeEvent{Width: width, Height: height})
}

// Capture captures the presented screen content as a string.
func (s *Backend) Capture() string {
	cells, w, h := s.screen.GetContents()
	return joinRegion(cells, w, 0, 0, w, h)
}

// CaptureRegion captures a rectangular region of the presented screen.
func (s *Backend) CaptureRegion(x, y, w, h int) string {
	cells, width, _ := s.screen.GetContents()
	return joinRegion(cells, width, x, y, w, h)
}

// CaptureCell returns the presented rune and style of a single cell.
func (s *Backend) CaptureCell(x, y int) (rune, backend.Style) {
	cells, w, h := s.screen.GetContents()
	if x < 0 || y < 0 || x >= w || y >= h {
		return ' ', backend.DefaultStyle()
	}
	c := cells[y*w+x]
	r := ' '
	if len(c.Runes) > 0 && c.Runes[0] != 0 {
		r = c.Runes[0]
	}
	return r, convertTcellStyle(c.Style)
}

func joinRegion(cells []tcellv2.SimCell, width, x, y, w, h int) string {
	lines := make([]string, 0, h)
	for row := y; row < y+h; row++ {
		var line strings.Builder
		for col := x; col < x+w; col++ {
			r := ' '
			if idx := row*width + col; col < width && idx >= 0 && idx < len(cells) {
				if runes := cells[idx].Runes; len(runes) > 0 && runes[0] != 0 {
					r = runes[0]
				}
			}
			line.WriteRune(r)
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// FindText searches for text on the screen and returns its position.
func (s *Backend) FindText(text string) (x, y int) {
	for row, line := range strings.Split(s.Capture(), "\n") {
		if col := strings.Index(line, text); col >= 0 {
			return len([]rune(line[:col])), row
		}
	}
	return -1, -1
}

// ContainsText returns true if the text appears anywhere on screen.
func (s *Backend) ContainsText(text string) bool {
	x, y := s.FindText(text)
	return x >= 0 && y >= 0
}

// Diff returns a unified diff between want and the current capture, or ""
// when they match. Trailing spaces are ignored on both sides.
func (s *Backend) Diff(want string) string {
	have := trimLines(s.Capture())
	want = trimLines(want)
	if have == want {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want + "\n"),
		B:        difflib.SplitLines(have + "\n"),
		FromFile: "want",
		ToFile:   "screen",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func convertTcellStyle(ts tcellv2.Style) backend.Style {
	fg, bg, attrs := ts.Decompose()
	return backend.DefaultStyle().
		Foreground(convertTcellColor(fg)).
		Background(convertTcellColor(bg)).
		Bold(attrs&tcellv2.AttrBold != 0).
		Italic(attrs&tcellv2.AttrItalic != 0).
		Underline(attrs&tcellv2.AttrUnderline != 0).
		Dim(attrs&tcellv2.AttrDim != 0).
		Blink(attrs&tcellv2.AttrBlink != 0).
		Reverse(attrs&tcellv2.AttrReverse != 0).
		StrikeThrough(attrs&tcellv2.AttrStrikeThrough != 0)
}

func convertTcellColor(tc tcellv2.Color) backend.Color {
	if tc == tcellv2.ColorDefault {
		return backend.ColorDefault
	}
	if tc&tcellv2.ColorIsRGB != 0 {
		r, g, b := tc.RGB()
		return backend.ColorRGB(uint8(r), uint8(g), uint8(b))
	}
	return backend.Color(tc & 0xFF)
}

var _ backend.Backend = (*Backend)(nil)
