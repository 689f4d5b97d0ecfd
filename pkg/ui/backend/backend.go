//go:generate mockgen -destination=backendmock/mock_backend.go -package=backendmock github.com/odvcencio/mosaic/pkg/ui/backend Backend

// Package backend defines the terminal backend interface for the frame
// compositor. This abstraction allows swapping between tcell (real
// terminals) and simulation backends (testing), enabling golden-frame tests.
package backend

import (
	"errors"
	"time"

	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

// ErrClosed is returned by Show once the terminal has gone away.
var ErrClosed = errors.New("backend: terminal closed")

// RenderTarget is the surface a drawable paints into.
type RenderTarget interface {
	Size() (width, height int)
	SetContent(x, y int, mainc rune, comb []rune, style Style)
}

// Presenter is the part of a backend the compositor needs: a surface to
// draw on plus the atomic present step.
type Presenter interface {
	RenderTarget

	// Clear resets every cell before the frame's draws are issued.
	Clear()

	// Show commits all draws issued since the last Show as one screen
	// update. It is the only blocking I/O in a frame.
	Show() error
}

// Backend is the terminal abstraction layer.
// Implementations handle terminal I/O, input events, and screen rendering.
type Backend interface {
	Presenter

	// Init initializes the backend (enters alt screen, raw mode, etc).
	Init() error

	// Fini cleans up the backend (restores terminal state).
	Fini()

	// HideCursor hides the terminal cursor.
	HideCursor()

	// Sync forces a full redraw on next Show().
	Sync()

	// PollEvent waits up to timeout for the next event. It returns nil when
	// nothing arrived; a zero timeout never blocks.
	PollEvent(timeout time.Duration) terminal.Event

	// PostEvent injects an event into the event queue.
	PostEvent(ev terminal.Event) error
}

// SubTarget wraps a RenderTarget with an offset for sub-region rendering.
// Writes outside the region are dropped.
type SubTarget struct {
	parent RenderTarget
	area   Rect
}

// NewSubTarget creates a sub-region of a RenderTarget.
func NewSubTarget(parent RenderTarget, x, y, w, h int) *SubTarget {
	return &SubTarget{parent: parent, area: Rect{X: x, Y: y, Width: w, Height: h}}
}

// Clip returns a SubTarget for area, trimmed to the parent's bounds.
func Clip(parent RenderTarget, area Rect) *SubTarget {
	w, h := parent.Size()
	return &SubTarget{parent: parent, area: area.Intersect(Rect{Width: w, Height: h})}
}

// Size returns the sub-target dimensions.
func (s *SubTarget) Size() (width, height int) {
	return s.area.Width, s.area.Height
}

// Area returns the region in parent coordinates.
func (s *SubTarget) Area() Rect {
	return s.area
}

// SetContent sets content with coordinates relative to the sub-target.
func (s *SubTarget) SetContent(x, y int, mainc rune, comb []rune, style Style) {
	if x < 0 || x >= s.area.Width || y < 0 || y >= s.area.Height {
		return
	}
	s.parent.SetContent(s.area.X+x, s.area.Y+y, mainc, comb, style)
}

// Fill paints every cell of a target with ch.
func Fill(t RenderTarget, ch rune, style Style) {
	w, h := t.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t.SetContent(x, y, ch, nil, style)
		}
	}
}
