// Package terminal provides the backend event types panels observe.
//
// Exactly one Event (or none) is published per frame through the event
// channel. Every concrete event is a comparable value type, so two panels
// looking at the same frame can compare what they saw with ==.
package terminal

import "fmt"

// Event represents a terminal input or platform event.
type Event interface {
	eventMarker()
}

// KeyEvent represents a key press.
type KeyEvent struct {
	Key   Key
	Rune  rune
	Alt   bool
	Ctrl  bool
	Shift bool
}

func (KeyEvent) eventMarker() {}

// Is reports whether the event is the given special key.
func (e KeyEvent) Is(k Key) bool {
	return e.Key == k
}

// String renders the key the way the status line shows it.
func (e KeyEvent) String() string {
	name := e.Key.String()
	if e.Key == KeyRune {
		if e.Rune == ' ' {
			name = "Space"
		} else {
			name = string(e.Rune)
		}
	}
	switch {
	case e.Ctrl:
		return "Ctrl+" + name
	case e.Alt:
		return "Alt+" + name
	}
	return name
}

// ResizeEvent indicates terminal size changed.
type ResizeEvent struct {
	Width  int
	Height int
}

func (ResizeEvent) eventMarker() {}

func (e ResizeEvent) String() string {
	return fmt.Sprintf("Resize(%dx%d)", e.Width, e.Height)
}

// MouseEvent represents a mouse input event.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
	Alt    bool
	Ctrl   bool
	Shift  bool
}

func (MouseEvent) eventMarker() {}

func (e MouseEvent) String() string {
	return fmt.Sprintf("Mouse(%d,%d)", e.X, e.Y)
}

// PasteEvent represents bracketed paste content.
type PasteEvent struct {
	Text string
}

func (PasteEvent) eventMarker() {}

func (e PasteEvent) String() string {
	return fmt.Sprintf("Paste(%d bytes)", len(e.Text))
}

// FocusEvent reports the terminal window gaining or losing focus.
type FocusEvent struct {
	Focused bool
}

func (FocusEvent) eventMarker() {}

func (e FocusEvent) String() string {
	if e.Focused {
		return "FocusIn"
	}
	return "FocusOut"
}

// IsKey reports whether ev is a key event for k.
func IsKey(ev Event, k Key) bool {
	key, ok := ev.(KeyEvent)
	return ok && key.Key == k
}

// IsRune reports whether ev is a printable key event for r.
func IsRune(ev Event, r rune) bool {
	key, ok := ev.(KeyEvent)
	return ok && key.Key == KeyRune && key.Rune == r
}

// Describe returns a short label for ev, or "none".
func Describe(ev Event) string {
	if ev == nil {
		return "none"
	}
	if s, ok := ev.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", ev)
}

// MouseButton identifies which mouse button was involved.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// MouseAction identifies what happened with the mouse.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
)

// Key represents special keys.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // Regular character
	KeyEnter
	KeyBackspace
	KeyTab
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyDelete
	KeyInsert
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyCtrlC
	KeyCtrlD
	KeyCtrlZ
)

var keyNames = map[Key]string{
	KeyNone:      "None",
	KeyRune:      "Rune",
	KeyEnter:     "Enter",
	KeyBackspace: "Backspace",
	KeyTab:       "Tab",
	KeyEscape:    "Esc",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PgUp",
	KeyPageDown:  "PgDn",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
	KeyCtrlC:     "Ctrl+C",
	KeyCtrlD:     "Ctrl+D",
	KeyCtrlZ:     "Ctrl+Z",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= KeyF1 && k <= KeyF12 {
		return fmt.Sprintf("F%d", int(k-KeyF1)+1)
	}
	return fmt.Sprintf("Key(%d)", int(k))
}
