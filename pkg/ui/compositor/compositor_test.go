package compositor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/backend/backendmock"
	"github.com/odvcencio/mosaic/pkg/ui/backend/sim"
	"github.com/odvcencio/mosaic/pkg/ui/drawlist"
)

func newSim(t *testing.T, w, h int) *sim.Backend {
	t.Helper()
	s := sim.New(w, h)
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	return s
}

// letter fills its whole area with r and records that it ran.
func letter(r rune, log *[]rune) drawlist.Drawable {
	return drawlist.DrawFunc(func(dst backend.RenderTarget) {
		*log = append(*log, r)
		backend.Fill(dst, r, backend.DefaultStyle())
	})
}

func TestFlush_ZOrderAndOverlap(t *testing.T) {
	s := newSim(t, 4, 1)
	list := drawlist.New()
	var order []rune

	cell := backend.NewRect(0, 0, 1, 1)
	require.NoError(t, list.Push(letter('B', &order), cell, 5))
	require.NoError(t, list.Push(letter('A', &order), cell, 0))
	require.NoError(t, list.Push(letter('C', &order), cell, 0))

	stats, err := New(s, list).Flush(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []rune{'A', 'C', 'B'}, order)
	assert.Equal(t, 3, stats.Requests)
	r, _ := s.CaptureCell(0, 0)
	assert.Equal(t, 'B', r, "highest z is painted last")
	assert.Equal(t, 1, s.ShowCount())
}

func TestFlush_ClipsToAreaAndScreen(t *testing.T) {
	s := newSim(t, 6, 3)
	list := drawlist.New()
	var order []rune

	require.NoError(t, list.Push(letter('x', &order), backend.NewRect(4, 1, 10, 10), 0))
	require.NoError(t, list.Push(letter('o', &order), backend.NewRect(1, 0, 2, 1), 0))

	_, err := New(s, list).Flush(context.Background())
	require.NoError(t, err)

	assert.Empty(t, s.Diff(" oo\n    xx\n    xx"))
}

func TestFlush_EmptyAreaSkipped(t *testing.T) {
	s := newSim(t, 4, 2)
	list := drawlist.New()
	var order []rune

	require.NoError(t, list.Push(letter('z', &order), backend.NewRect(0, 0, 0, 1), 0))
	require.NoError(t, list.Push(letter('q', &order), backend.NewRect(10, 10, 2, 2), 0))

	stats, err := New(s, list).Flush(context.Background())
	require.NoError(t, err)
	assert.Empty(t, order)
	assert.Equal(t, 0, stats.Requests)
	assert.Equal(t, 2, stats.Skipped)
}

func TestFlush_ClearDrawShowOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	be := backendmock.NewMockBackend(ctrl)
	be.EXPECT().Size().Return(10, 5).AnyTimes()

	gomock.InOrder(
		be.EXPECT().Clear(),
		be.EXPECT().SetContent(2, 1, 'a', nil, backend.DefaultStyle()),
		be.EXPECT().SetContent(0, 0, 'b', nil, backend.DefaultStyle()),
		be.EXPECT().Show().Return(nil),
	)

	list := drawlist.New()
	put := func(r rune) drawlist.Drawable {
		return drawlist.DrawFunc(func(dst backend.RenderTarget) {
			dst.SetContent(0, 0, r, nil, backend.DefaultStyle())
		})
	}
	require.NoError(t, list.Push(put('b'), backend.NewRect(0, 0, 1, 1), 1))
	require.NoError(t, list.Push(put('a'), backend.NewRect(2, 1, 1, 1), 0))

	_, err := New(be, list).Flush(context.Background())
	require.NoError(t, err)
}

func TestFlush_ShowFailure(t *testing.T) {
	s := newSim(t, 4, 1)
	boom := errors.New("tty gone")
	s.FailShow(boom)

	list := drawlist.New()
	var order []rune
	require.NoError(t, list.Push(letter('x', &order), backend.NewRect(0, 0, 1, 1), 0))

	_, err := New(s, list).Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPresentationFailed)
	assert.ErrorIs(t, err, boom)
	assert.False(t, apperrors.IsFatal(err))
	assert.Equal(t, 0, s.ShowCount())
	assert.False(t, s.ContainsText("x"))
}

func TestFlush_CancelledDiscards(t *testing.T) {
	ctrl := gomock.NewController(t)
	be := backendmock.NewMockBackend(ctrl) // no calls expected

	list := drawlist.New()
	var order []rune
	require.NoError(t, list.Push(letter('x', &order), backend.NewRect(0, 0, 1, 1), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := New(be, list).Flush(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, order)
	assert.Zero(t, list.Len())
}

func TestFlush_OncePerFrame(t *testing.T) {
	s := newSim(t, 2, 1)
	list := drawlist.New()
	c := New(s, list)

	_, err := c.Flush(context.Background())
	require.NoError(t, err)

	_, err = c.Flush(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyFlushed)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeAlreadyFlushed))
	assert.Equal(t, 1, s.ShowCount())

	// buffer is empty and rejects pushes until the next frame starts
	assert.Zero(t, list.Len())
	assert.ErrorIs(t, list.Push(drawlist.DrawFunc(func(backend.RenderTarget) {}), backend.Rect{}, 0), drawlist.ErrStaleFramePush)

	list.Reset()
	_, err = c.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, s.ShowCount())
}

func TestFlush_Span(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	s := newSim(t, 2, 1)

	list := drawlist.New()
	var order []rune
	require.NoError(t, list.Push(letter('x', &order), backend.NewRect(0, 0, 1, 1), 0))

	_, err := New(s, list, WithTracer(tp.Tracer("test"))).Flush(context.Background())
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "compositor.flush", spans[0].Name())
}

func TestErrAlreadyFlushed_DistinctFromInternal(t *testing.T) {
	internal := apperrors.New(apperrors.ErrCodeInternal, "backend is required")
	assert.False(t, errors.Is(internal, ErrAlreadyFlushed))
	assert.False(t, errors.Is(ErrAlreadyFlushed, internal))
}
