// Package tcell provides a Backend implementation using tcell.
package tcell

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

const eventQueueSize = 64

// Backend implements backend.Backend using tcell.
//
// A pump goroutine started by Init moves tcell events into a buffered
// channel so PollEvent can honor a timeout. Fini stops the pump even when
// nobody is draining the channel.
type Backend struct {
	screen   tcell.Screen
	events   chan tcell.Event
	done     chan struct{}
	closed   atomic.Bool
	once     sync.Once
	finiOnce sync.Once

	// Bracketed paste state, touched only by the PollEvent caller.
	inPaste     bool
	pasteBuffer strings.Builder
}

// New creates a new tcell backend on the controlling terminal.
func New() (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen), nil
}

// NewWithScreen creates a backend with an existing tcell screen (for testing).
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{
		screen: screen,
		events: make(chan tcell.Event, eventQueueSize),
		done:   make(chan struct{}),
	}
}

// Screen exposes the wrapped tcell screen.
func (b *Backend) Screen() tcell.Screen {
	return b.screen
}

// Init initializes the backend and starts the event pump.
func (b *Backend) Init() error {
	if err := b.screen.Init(); err != nil {
		return err
	}
	b.screen.EnableMouse()
	b.screen.EnablePaste()
	b.screen.EnableFocus()
	b.once.Do(func() { go b.pump() })
	return nil
}

func (b *Backend) pump() {
	defer close(b.events)
	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			b.closed.Store(true)
			return
		}
		select {
		case b.events <- ev:
		case <-b.done:
			return
		}
	}
}

// Fini cleans up the backend. It is safe to call more than once.
func (b *Backend) Fini() {
	b.finiOnce.Do(func() {
		b.closed.Store(true)
		close(b.done)
		b.screen.Fini()
	})
}

// Size returns the terminal dimensions.
func (b *Backend) Size() (width, height int) {
	return b.screen.Size()
}

// SetContent sets a cell at position (x, y).
func (b *Backend) SetContent(x, y int, mainc rune, comb []rune, style backend.Style) {
	b.screen.SetContent(x, y, mainc, comb, convertStyle(style))
}

// Clear clears the back buffer. tcell diffs on Show, so this does not flicker.
func (b *Backend) Clear() {
	b.screen.Clear()
}

// Show synchronizes the buffer to the terminal.
func (b *Backend) Show() error {
	if b.closed.Load() {
		return backend.ErrClosed
	}
	b.screen.Show()
	return nil
}

// HideCursor hides the cursor.
func (b *Backend) HideCursor() {
	b.screen.HideCursor()
}

// Sync forces a full redraw.
func (b *Backend) Sync() {
	b.screen.Sync()
}

// PollEvent waits up to timeout for the next translated event.
func (b *Backend) PollEvent(timeout time.Duration) terminal.Event {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		var (
			ev tcell.Event
			ok bool
		)
		if deadline == nil {
			select {
			case ev, ok = <-b.events:
			default:
				return nil
			}
		} else {
			select {
			case ev, ok = <-b.events:
			case <-deadline:
				return nil
			}
		}
		if !ok {
			return nil
		}
		if out := b.translate(ev); out != nil {
			return out
		}
	}
}

// translate folds bracketed paste into one PasteEvent and converts the rest.
// It returns nil for events that produce nothing yet.
func (b *Backend) translate(ev tcell.Event) terminal.Event {
	switch e := ev.(type) {
	case *tcell.EventPaste:
		if e.Start() {
			b.inPaste = true
			b.pasteBuffer.Reset()
			return nil
		}
		if e.End() {
			b.inPaste = false
			text := b.pasteBuffer.String()
			b.pasteBuffer.Reset()
			if text != "" {
				return terminal.PasteEvent{Text: text}
			}
			return nil
		}
	case *tcell.EventKey:
		if b.inPaste {
			switch e.Key() {
			case tcell.KeyRune:
				b.pasteBuffer.WriteRune(e.Rune())
			case tcell.KeyEnter:
				b.pasteBuffer.WriteRune('\n')
			case tcell.KeyTab:
				b.pasteBuffer.WriteRune('\t')
			}
			return nil
		}
	}
	return convertEvent(ev)
}

// PostEvent injects an event into the queue.
func (b *Backend) PostEvent(ev terminal.Event) error {
	if tev := reverseConvertEvent(ev); tev != nil {
		return b.screen.PostEvent(tev)
	}
	return nil
}

func convertStyle(s backend.Style) tcell.Style {
	fg, bg, attrs := s.Decompose()
	style := tcell.StyleDefault.
		Foreground(convertColor(fg)).
		Background(convertColor(bg))

	return style.
		Bold(attrs&backend.AttrBold != 0).
		Italic(attrs&backend.AttrItalic != 0).
		Underline(attrs&backend.AttrUnderline != 0).
		Dim(attrs&backend.AttrDim != 0).
		Blink(attrs&backend.AttrBlink != 0).
		Reverse(attrs&backend.AttrReverse != 0).
		StrikeThrough(attrs&backend.AttrStrikeThrough != 0)
}

func convertColor(c backend.Color) tcell.Color {
	if c == backend.ColorDefault {
		return tcell.ColorDefault
	}
	if c.IsRGB() {
		r, g, b := c.RGB()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}
	return tcell.PaletteColor(int(c))
}

func convertEvent(ev tcell.Event) terminal.Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		mods := e.Modifiers()
		return terminal.KeyEvent{
			Key:   convertKey(e.Key()),
			Rune:  e.Rune(),
			Alt:   mods&tcell.ModAlt != 0,
			Ctrl:  mods&tcell.ModCtrl != 0,
			Shift: mods&tcell.ModShift != 0,
		}
	case *tcell.EventResize:
		w, h := e.Size()
		return terminal.ResizeEvent{Width: w, Height: h}
	case *tcell.EventMouse:
		x, y := e.Position()
		mods := e.Modifiers()
		return terminal.MouseEvent{
			X:      x,
			Y:      y,
			Button: convertMouseButton(e.Buttons()),
			Action: convertMouseAction(e.Buttons()),
			Alt:    mods&tcell.ModAlt != 0,
			Ctrl:   mods&tcell.ModCtrl != 0,
			Shift:  mods&tcell.ModShift != 0,
		}
	case *tcell.EventFocus:
		return terminal.FocusEvent{Focused: e.Focused}
	default:
		return nil
	}
}

var keyTable = []struct {
	tc tcell.Key
	tk terminal.Key
}{
	{tcell.KeyRune, terminal.KeyRune},
	{tcell.KeyUp, terminal.KeyUp},
	{tcell.KeyDown, terminal.KeyDown},
	{tcell.KeyRight, terminal.KeyRight},
	{tcell.KeyLeft, terminal.KeyLeft},
	{tcell.KeyPgUp, terminal.KeyPageUp},
	{tcell.KeyPgDn, terminal.KeyPageDown},
	{tcell.KeyHome, terminal.KeyHome},
	{tcell.KeyEnd, terminal.KeyEnd},
	{tcell.KeyInsert, terminal.KeyInsert},
	{tcell.KeyDelete, terminal.KeyDelete},
	{tcell.KeyBackspace2, terminal.KeyBackspace},
	{tcell.KeyBackspace, terminal.KeyBackspace},
	{tcell.KeyTab, terminal.KeyTab},
	{tcell.KeyEnter, terminal.KeyEnter},
	{tcell.KeyEscape, terminal.KeyEscape},
	{tcell.KeyCtrlC, terminal.KeyCtrlC},
	{tcell.KeyCtrlD, terminal.KeyCtrlD},
	{tcell.KeyCtrlZ, terminal.KeyCtrlZ},
	{tcell.KeyF1, terminal.KeyF1},
	{tcell.KeyF2, terminal.KeyF2},
	{tcell.KeyF3, terminal.KeyF3},
	{tcell.KeyF4, terminal.KeyF4},
	{tcell.KeyF5, terminal.KeyF5},
	{tcell.KeyF6, terminal.KeyF6},
	{tcell.KeyF7, terminal.KeyF7},
	{tcell.KeyF8, terminal.KeyF8},
	{tcell.KeyF9, terminal.KeyF9},
	{tcell.KeyF10, terminal.KeyF10},
	{tcell.KeyF11, terminal.KeyF11},
	{tcell.KeyF12, terminal.KeyF12},
}

var (
	toTerminal = map[tcell.Key]terminal.Key{}
	toTcell    = map[terminal.Key]tcell.Key{}
)

func init() {
	for _, k := range keyTable {
		toTerminal[k.tc] = k.tk
		// First entry wins so Backspace posts as Backspace2 (DEL), which is
		// what terminals send.
		if _, ok := toTcell[k.tk]; !ok {
			toTcell[k.tk] = k.tc
		}
	}
}

func convertKey(k tcell.Key) terminal.Key {
	if tk, ok := toTerminal[k]; ok {
		return tk
	}
	return terminal.KeyNone
}

func convertMouseButton(buttons tcell.ButtonMask) terminal.MouseButton {
	switch {
	case buttons&tcell.WheelUp != 0:
		return terminal.MouseWheelUp
	case buttons&tcell.WheelDown != 0:
		return terminal.MouseWheelDown
	case buttons&tcell.ButtonPrimary != 0:
		return terminal.MouseLeft
	case buttons&tcell.ButtonMiddle != 0:
		return terminal.MouseMiddle
	case buttons&tcell.ButtonSecondary != 0:
		return terminal.MouseRight
	default:
		return terminal.MouseNone
	}
}

func convertMouseAction(buttons tcell.ButtonMask) terminal.MouseAction {
	if buttons == tcell.ButtonNone {
		return terminal.MouseRelease
	}
	return terminal.MousePress
}

func reverseConvertEvent(ev terminal.Event) tcell.Event {
	switch e := ev.(type) {
	case terminal.ResizeEvent:
		return tcell.NewEventResize(e.Width, e.Height)
	case terminal.KeyEvent:
		k, ok := toTcell[e.Key]
		if !ok {
			return nil
		}
		var mods tcell.ModMask
		if e.Alt {
			mods |= tcell.ModAlt
		}
		if e.Ctrl {
			mods |= tcell.ModCtrl
		}
		if e.Shift {
			mods |= tcell.ModShift
		}
		return tcell.NewEventKey(k, e.Rune, mods)
	case terminal.FocusEvent:
		return tcell.NewEventFocus(e.Focused)
	default:
		return nil
	}
}

var _ backend.Backend = (*Backend)(nil)
