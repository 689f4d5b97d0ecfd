package panel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
)

type Counter struct{ N int }

type Label string

func TestRegister_DuplicateType(t *testing.T) {
	reg := NewRegistry()
	p1, err := reg.Claim("p1")
	require.NoError(t, err)

	_, err = Register(p1, Counter{})
	require.NoError(t, err)

	_, err = Register(p1, Counter{N: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateRegistration))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateRegistration))
	assert.True(t, apperrors.IsFatal(err))

	// the first registration is untouched
	c := MustGet[Counter](p1)
	assert.Equal(t, Counter{}, c.Load())
}

func TestRegister_SameTypeDifferentPanels(t *testing.T) {
	reg := NewRegistry()
	p1, _ := reg.Claim("p1")
	p2, _ := reg.Claim("p2")

	c1 := MustRegister(p1, Counter{N: 1})
	c2 := MustRegister(p2, Counter{N: 2})

	c1.Update(func(c *Counter) { c.N = 100 })
	assert.Equal(t, 100, MustGet[Counter](p1).Load().N)
	assert.Equal(t, 2, c2.Load().N)
}

func TestGet_NotRegistered(t *testing.T) {
	reg := NewRegistry()
	p1, _ := reg.Claim("p1")
	p2, _ := reg.Claim("p2")
	MustRegister(p2, Counter{})

	_, err := Get[Counter](p1)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Panics(t, func() { MustGet[Label](p2) })
}

func TestClaim_Twice(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Claim("app")
	require.NoError(t, err)

	_, err = reg.Claim("app")
	assert.ErrorIs(t, err, ErrScopeClaimed)
	assert.Equal(t, []ID{"app"}, reg.Panels())
}

func TestCell_ReadAfterWrite(t *testing.T) {
	reg := NewRegistry()
	s, _ := reg.Claim("p")
	c := MustRegister(s, Counter{})

	c.Update(func(v *Counter) { v.N++ })
	assert.Equal(t, 1, c.Load().N)

	c.Store(Counter{N: 7})
	assert.Equal(t, 7, MustGet[Counter](s).Load().N)
}

func TestScope_Types(t *testing.T) {
	reg := NewRegistry()
	s, _ := reg.Claim("p")
	MustRegister(s, Label("x"))
	MustRegister(s, Counter{})

	assert.Equal(t, []string{"panel.Counter", "panel.Label"}, s.Types())
	assert.Equal(t, ID("p"), s.ID())
}

func TestCell_ConcurrentUpdates(t *testing.T) {
	reg := NewRegistry()
	s, _ := reg.Claim("p")
	c := MustRegister(s, Counter{})
	l := MustRegister(s, Label(""))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Update(func(v *Counter) { v.N++ })
		}()
		go func() {
			defer wg.Done()
			_ = l.Load()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Load().N)
}

func TestCell_UpdateReadsSiblingCell(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.Claim("p")
	require.NoError(t, err)
	a := MustRegister(p, Counter{})
	b := MustRegister(p, Label("seven"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Update(func(v *Counter) { v.N = len(b.Load()) + 1 })
		b.Update(func(v *Label) { *v = Label(string(*v) + "!") })
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("updating one cell while reading a sibling cell blocked")
	}
	assert.Equal(t, 6, a.Load().N)
	assert.Equal(t, Label("seven!"), b.Load())
}
