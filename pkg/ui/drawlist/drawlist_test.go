package drawlist

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
	"github.com/odvcencio/mosaic/pkg/ui/backend"
)

type named string

func (named) Draw(backend.RenderTarget) {}

func names(reqs []Request) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = string(r.Drawable.(named))
	}
	return out
}

func TestDrainSorted_ZThenPushOrder(t *testing.T) {
	l := New()
	area := backend.NewRect(0, 0, 1, 1)
	require.NoError(t, l.Push(named("B"), area, 5))
	require.NoError(t, l.Push(named("A"), area, 0))
	require.NoError(t, l.Push(named("C"), area, 0))

	assert.Equal(t, []string{"A", "C", "B"}, names(l.DrainSorted()))
}

func TestDrainSorted_NegativeZ(t *testing.T) {
	l := New()
	area := backend.NewRect(0, 0, 1, 1)
	_ = l.Push(named("zero"), area, 0)
	_ = l.Push(named("under"), area, -3)
	_ = l.Push(named("top"), area, 10)

	assert.Equal(t, []string{"under", "zero", "top"}, names(l.DrainSorted()))
}

func TestDrainSorted_EmptiesAndSeals(t *testing.T) {
	l := New()
	_ = l.Push(named("x"), backend.Rect{}, 0)

	got := l.DrainSorted()
	assert.Len(t, got, 1)
	assert.Zero(t, l.Len())
	assert.True(t, l.Sealed())
	assert.Empty(t, l.DrainSorted())
}

func TestPush_AfterDrainIsStale(t *testing.T) {
	l := New()
	l.DrainSorted()

	err := l.Push(named("late"), backend.Rect{}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaleFramePush)
	assert.Equal(t, apperrors.ErrCodeStaleFramePush, apperrors.GetCode(err))
	assert.Zero(t, l.Len())

	l.Reset()
	assert.False(t, l.Sealed())
	assert.NoError(t, l.Push(named("next"), backend.Rect{}, 1))
}

func TestDiscard(t *testing.T) {
	l := New()
	_ = l.Push(named("a"), backend.Rect{}, 0)
	_ = l.Push(named("b"), backend.Rect{}, 0)

	assert.Equal(t, 2, l.Discard())
	assert.Zero(t, l.Len())
	assert.ErrorIs(t, l.Push(named("c"), backend.Rect{}, 0), ErrStaleFramePush)
}

func TestSnapshot_DoesNotDrain(t *testing.T) {
	l := New()
	_ = l.Push(named("hi"), backend.Rect{}, 2)
	_ = l.Push(named("lo"), backend.Rect{}, 1)

	assert.Equal(t, []string{"lo", "hi"}, names(l.Snapshot()))
	assert.Equal(t, 2, l.Len())
	assert.False(t, l.Sealed())
}

func TestPush_Concurrent(t *testing.T) {
	l := New()
	const producers, each = 8, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_ = l.Push(named(fmt.Sprintf("%d/%d", p, i)), backend.Rect{}, p%3)
			}
		}(p)
	}
	wg.Wait()

	reqs := l.DrainSorted()
	require.Len(t, reqs, producers*each)

	// per producer, push order survives; globally z is non-decreasing
	last := map[int]int{}
	for i, r := range reqs {
		if i > 0 {
			assert.LessOrEqual(t, reqs[i-1].Z, r.Z)
			if reqs[i-1].Z == r.Z {
				assert.Less(t, reqs[i-1].Seq, r.Seq)
			}
		}
		var p, n int
		_, err := fmt.Sscanf(string(r.Drawable.(named)), "%d/%d", &p, &n)
		require.NoError(t, err)
		if prev, ok := last[p]; ok {
			assert.Greater(t, n, prev)
		}
		last[p] = n
	}
}

func TestDrawFunc(t *testing.T) {
	called := false
	var d Drawable = DrawFunc(func(backend.RenderTarget) { called = true })
	d.Draw(nil)
	assert.True(t, called)
}
