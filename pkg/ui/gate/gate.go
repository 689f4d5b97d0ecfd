// Package gate provides the predicates that decide whether a behavior runs
// in the current frame. Gates are evaluated fresh each time, immediately
// before the behavior they guard.
package gate

import (
	"sync"
	"sync/atomic"
)

// Gate reports whether a behavior may run now.
type Gate interface {
	Open() bool
}

// Func adapts a function to Gate.
type Func func() bool

// Open calls f.
func (f Func) Open() bool { return f() }

type constant bool

func (c constant) Open() bool { return bool(c) }

var (
	// Always is open in every frame.
	Always Gate = constant(true)
	// Never is closed in every frame.
	Never Gate = constant(false)
)

// Not inverts g.
func Not(g Gate) Gate {
	return Func(func() bool { return !g.Open() })
}

// All is open when every gate is open. It short-circuits left to right.
func All(gs ...Gate) Gate {
	return Func(func() bool {
		for _, g := range gs {
			if !g.Open() {
				return false
			}
		}
		return true
	})
}

// Any is open when at least one gate is open.
func Any(gs ...Gate) Gate {
	return Func(func() bool {
		for _, g := range gs {
			if g.Open() {
				return true
			}
		}
		return false
	})
}

// Flag is a gate toggled from outside, safe for concurrent use.
type Flag struct {
	on atomic.Bool
}

// NewFlag creates a flag with the given initial value.
func NewFlag(on bool) *Flag {
	f := &Flag{}
	f.on.Store(on)
	return f
}

// Set opens or closes the flag.
func (f *Flag) Set(on bool) { f.on.Store(on) }

// Toggle flips the flag and returns the new value.
func (f *Flag) Toggle() bool {
	for {
		old := f.on.Load()
		if f.on.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Open reports the flag's value.
func (f *Flag) Open() bool { return f.on.Load() }

// State is a value whose changes take effect at a frame boundary.
//
// Set queues a transition; Apply, called by the scheduler between event
// refresh and the update phase, makes it current. Every behavior in a frame
// therefore sees the same Current value.
type State[S comparable] struct {
	mu      sync.RWMutex
	current S
	next    S
	pending bool
}

// NewState creates a state holding initial.
func NewState[S comparable](initial S) *State[S] {
	return &State[S]{current: initial}
}

// Current returns the value in effect for this frame.
func (s *State[S]) Current() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set queues next for the following frame. The last Set before Apply wins.
func (s *State[S]) Set(next S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = next
	s.pending = true
}

// Pending reports the queued value, if any.
func (s *State[S]) Pending() (S, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next, s.pending
}

// Apply makes a queued transition current. It reports whether the value
// changed.
func (s *State[S]) Apply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return false
	}
	s.pending = false
	changed := s.current != s.next
	s.current = s.next
	return changed
}

// InState is open while st's current value equals v.
func InState[S comparable](st *State[S], v S) Gate {
	return Func(func() bool { return st.Current() == v })
}
