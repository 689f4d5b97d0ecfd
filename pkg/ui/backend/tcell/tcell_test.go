package tcell

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

func TestKeyRoundTrip(t *testing.T) {
	for _, k := range []terminal.Key{
		terminal.KeyUp, terminal.KeyDown, terminal.KeyLeft, terminal.KeyRight,
		terminal.KeyEnter, terminal.KeyEscape, terminal.KeyTab, terminal.KeyF5,
		terminal.KeyPageDown, terminal.KeyBackspace,
	} {
		tev := reverseConvertEvent(terminal.KeyEvent{Key: k})
		require.NotNil(t, tev, k.String())
		got, ok := convertEvent(tev).(terminal.KeyEvent)
		require.True(t, ok, k.String())
		assert.Equal(t, k, got.Key, k.String())
	}
}

func TestRuneRoundTrip(t *testing.T) {
	got := convertEvent(reverseConvertEvent(terminal.KeyEvent{Key: terminal.KeyRune, Rune: 'x', Alt: true}))
	key, ok := got.(terminal.KeyEvent)
	require.True(t, ok)
	assert.Equal(t, terminal.KeyRune, key.Key)
	assert.Equal(t, 'x', key.Rune)
	assert.True(t, key.Alt)
}

func TestConvertKey_Unknown(t *testing.T) {
	assert.Equal(t, terminal.KeyNone, convertKey(tcell.KeyF64))
}

func TestConvertEvent_ResizeAndFocus(t *testing.T) {
	assert.Equal(t, terminal.ResizeEvent{Width: 30, Height: 9}, convertEvent(tcell.NewEventResize(30, 9)))
	assert.Equal(t, terminal.FocusEvent{Focused: true}, convertEvent(tcell.NewEventFocus(true)))
	assert.Nil(t, convertEvent(tcell.NewEventInterrupt(nil)))
}

func TestConvertEvent_Mouse(t *testing.T) {
	ev := convertEvent(tcell.NewEventMouse(4, 2, tcell.ButtonPrimary, tcell.ModShift))
	m, ok := ev.(terminal.MouseEvent)
	require.True(t, ok)
	assert.Equal(t, 4, m.X)
	assert.Equal(t, 2, m.Y)
	assert.Equal(t, terminal.MouseLeft, m.Button)
	assert.Equal(t, terminal.MousePress, m.Action)
	assert.True(t, m.Shift)

	up := convertEvent(tcell.NewEventMouse(0, 0, tcell.ButtonNone, 0)).(terminal.MouseEvent)
	assert.Equal(t, terminal.MouseRelease, up.Action)
}

func TestTranslate_FoldsPaste(t *testing.T) {
	b := NewWithScreen(nil)

	assert.Nil(t, b.translate(tcell.NewEventPaste(true)))
	assert.Nil(t, b.translate(tcell.NewEventKey(tcell.KeyRune, 'a', 0)))
	assert.Nil(t, b.translate(tcell.NewEventKey(tcell.KeyEnter, 0, 0)))
	assert.Nil(t, b.translate(tcell.NewEventKey(tcell.KeyRune, 'b', 0)))
	assert.Equal(t, terminal.PasteEvent{Text: "a\nb"}, b.translate(tcell.NewEventPaste(false)))

	// keys outside a paste pass through
	key, ok := b.translate(tcell.NewEventKey(tcell.KeyRune, 'c', 0)).(terminal.KeyEvent)
	require.True(t, ok)
	assert.Equal(t, 'c', key.Rune)
}

func TestTranslate_EmptyPaste(t *testing.T) {
	b := NewWithScreen(nil)
	assert.Nil(t, b.translate(tcell.NewEventPaste(true)))
	assert.Nil(t, b.translate(tcell.NewEventPaste(false)))
}

func TestConvertColor(t *testing.T) {
	assert.Equal(t, tcell.ColorDefault, convertColor(backend.ColorDefault))
	assert.Equal(t, tcell.NewRGBColor(1, 2, 3), convertColor(backend.ColorRGB(1, 2, 3)))
	assert.Equal(t, tcell.PaletteColor(3), convertColor(backend.ColorYellow))
}

func TestConvertStyle(t *testing.T) {
	s := backend.DefaultStyle().Foreground(backend.ColorRGB(9, 8, 7)).Bold(true).Italic(true)
	fg, _, attrs := convertStyle(s).Decompose()
	assert.Equal(t, tcell.NewRGBColor(9, 8, 7), fg)
	assert.NotZero(t, attrs&tcell.AttrBold)
	assert.NotZero(t, attrs&tcell.AttrItalic)
	assert.Zero(t, attrs&tcell.AttrReverse)
}

func TestFini_StopsPumpWithFullQueue(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init())

	// nobody polls, so the pump ends up blocked on a full queue
	require.Eventually(t, func() bool {
		_ = screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
		return len(b.events) == eventQueueSize
	}, 2*time.Second, time.Millisecond)

	b.Fini()
	b.Fini()

	drained := make(chan struct{})
	go func() {
		for range b.events {
		}
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("event pump still running after Fini")
	}
	assert.ErrorIs(t, b.Show(), backend.ErrClosed)
}
