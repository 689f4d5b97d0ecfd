package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	assert.True(t, Always.Open())
	assert.False(t, Never.Open())
	assert.True(t, Not(Never).Open())
}

func TestCombinators(t *testing.T) {
	tests := []struct {
		name string
		gate Gate
		want bool
	}{
		{"all empty", All(), true},
		{"all open", All(Always, Always), true},
		{"all one closed", All(Always, Never), false},
		{"any empty", Any(), false},
		{"any one open", Any(Never, Always), true},
		{"any none open", Any(Never, Never), false},
		{"not any", Not(Any(Never)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gate.Open())
		})
	}
}

func TestAll_ShortCircuits(t *testing.T) {
	calls := 0
	counted := Func(func() bool { calls++; return true })
	assert.False(t, All(Never, counted).Open())
	assert.Zero(t, calls)
}

func TestFlag(t *testing.T) {
	f := NewFlag(false)
	assert.False(t, f.Open())
	assert.True(t, f.Toggle())
	assert.True(t, f.Open())
	f.Set(false)
	assert.False(t, f.Open())
}

func TestFunc_EvaluatedEveryTime(t *testing.T) {
	open := true
	g := Func(func() bool { return open })
	assert.True(t, g.Open())
	open = false
	assert.False(t, g.Open())
}

type mode int

const (
	closed mode = iota
	opened
)

func TestState_TransitionAtApply(t *testing.T) {
	st := NewState(closed)
	inOpen := InState(st, opened)

	st.Set(opened)
	assert.False(t, inOpen.Open(), "queued transition is not visible yet")
	next, ok := st.Pending()
	assert.True(t, ok)
	assert.Equal(t, opened, next)

	assert.True(t, st.Apply())
	assert.True(t, inOpen.Open())
	assert.Equal(t, opened, st.Current())

	assert.False(t, st.Apply(), "nothing queued")

	st.Set(opened)
	assert.False(t, st.Apply(), "same value is not a change")
}

func TestState_LastSetWins(t *testing.T) {
	st := NewState(closed)
	st.Set(opened)
	st.Set(closed)
	assert.False(t, st.Apply())
	assert.Equal(t, closed, st.Current())
}
