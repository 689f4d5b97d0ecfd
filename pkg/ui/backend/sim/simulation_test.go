package sim

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

func newInit(t *testing.T, w, h int) *Backend {
	t.Helper()
	s := New(w, h)
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	return s
}

func write(s *Backend, x, y int, text string, style backend.Style) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func TestBackend_BasicRendering(t *testing.T) {
	s := newInit(t, 20, 5)

	write(s, 0, 0, "Hello, World!", backend.DefaultStyle())
	require.NoError(t, s.Show())

	lines := strings.Split(s.Capture(), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Hello, World!"))
	assert.Len(t, []rune(lines[0]), 20)
}

func TestBackend_Size(t *testing.T) {
	s := newInit(t, 80, 24)
	w, h := s.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 24, h)

	s.Resize(40, 12)
	w, h = s.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 12, h)
}

func TestBackend_CaptureIsPresentedFrame(t *testing.T) {
	s := newInit(t, 10, 2)

	write(s, 0, 0, "draft", backend.DefaultStyle())
	assert.False(t, s.ContainsText("draft"), "unpresented draws must not be visible")

	require.NoError(t, s.Show())
	assert.True(t, s.ContainsText("draft"))
	assert.Equal(t, 1, s.ShowCount())
}

func TestBackend_FailShow(t *testing.T) {
	s := newInit(t, 10, 2)
	boom := errors.New("boom")
	s.FailShow(boom)

	write(s, 0, 0, "lost", backend.DefaultStyle())
	assert.ErrorIs(t, s.Show(), boom)
	assert.False(t, s.ContainsText("lost"))
	assert.Equal(t, 0, s.ShowCount())

	s.FailShow(nil)
	require.NoError(t, s.Show())
	assert.True(t, s.ContainsText("lost"))
}

func TestBackend_FindTextAndRegion(t *testing.T) {
	s := newInit(t, 20, 4)
	write(s, 3, 2, "needle", backend.DefaultStyle())
	require.NoError(t, s.Show())

	x, y := s.FindText("needle")
	assert.Equal(t, 3, x)
	assert.Equal(t, 2, y)

	x, y = s.FindText("missing")
	assert.Equal(t, -1, x)
	assert.Equal(t, -1, y)

	assert.Equal(t, "need", s.CaptureRegion(3, 2, 4, 1))
}

func TestBackend_CaptureCellStyle(t *testing.T) {
	s := newInit(t, 5, 1)
	style := backend.DefaultStyle().Foreground(backend.ColorRGB(10, 20, 30)).Bold(true)
	s.SetContent(1, 0, 'x', nil, style)
	require.NoError(t, s.Show())

	r, got := s.CaptureCell(1, 0)
	assert.Equal(t, 'x', r)
	fg, _, attrs := got.Decompose()
	assert.Equal(t, backend.ColorRGB(10, 20, 30), fg)
	assert.NotZero(t, attrs&backend.AttrBold)

	r, _ = s.CaptureCell(99, 0)
	assert.Equal(t, ' ', r)
}

// pollUntil skips events tcell queues on its own (initial resize, focus).
func pollUntil(t *testing.T, s *Backend, match func(terminal.Event) bool) terminal.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ev := s.PollEvent(50 * time.Millisecond); ev != nil && match(ev) {
			return ev
		}
	}
	t.Fatal("expected event never arrived")
	return nil
}

func TestBackend_InjectKeyRoundTrip(t *testing.T) {
	s := newInit(t, 10, 2)

	s.InjectKeyRune('x')
	ev := pollUntil(t, s, func(ev terminal.Event) bool { _, ok := ev.(terminal.KeyEvent); return ok })
	assert.True(t, terminal.IsRune(ev, 'x'))

	s.InjectKey(terminal.KeyEscape, 0)
	ev = pollUntil(t, s, func(ev terminal.Event) bool { _, ok := ev.(terminal.KeyEvent); return ok })
	assert.True(t, terminal.IsKey(ev, terminal.KeyEscape))
}

func TestBackend_InjectKeyString(t *testing.T) {
	s := newInit(t, 10, 2)
	s.InjectKeyString("hi")

	isKey := func(ev terminal.Event) bool { _, ok := ev.(terminal.KeyEvent); return ok }
	assert.True(t, terminal.IsRune(pollUntil(t, s, isKey), 'h'))
	assert.True(t, terminal.IsRune(pollUntil(t, s, isKey), 'i'))
}

func TestBackend_InjectResize(t *testing.T) {
	s := newInit(t, 10, 2)
	s.InjectResize(30, 8)

	want := terminal.ResizeEvent{Width: 30, Height: 8}
	ev := pollUntil(t, s, func(ev terminal.Event) bool { return ev == want })
	assert.Equal(t, want, ev)
}

func TestBackend_PollEventTimeout(t *testing.T) {
	s := newInit(t, 10, 2)
	// drain whatever tcell queued during Init
	for s.PollEvent(20 * time.Millisecond) != nil {
	}
	assert.Nil(t, s.PollEvent(0))
	assert.Nil(t, s.PollEvent(5 * time.Millisecond))
}

func TestBackend_Diff(t *testing.T) {
	s := newInit(t, 6, 2)
	write(s, 0, 0, "ab", backend.DefaultStyle())
	require.NoError(t, s.Show())

	assert.Empty(t, s.Diff("ab\n"))
	diff := s.Diff("ac")
	assert.Contains(t, diff, "-ac")
	assert.Contains(t, diff, "+ab")
}
