// Package panel provides per-panel typed state cells.
//
// Each panel claims exactly one Scope from a Registry. State cells are keyed
// by (panel, Go type) and can only be created or looked up through the
// owning Scope, so no panel can reach another panel's state.
package panel

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
)

// ID names a panel. Ids are unique within a Registry.
type ID string

var (
	// ErrDuplicateRegistration is returned when a panel registers a second
	// cell of the same type.
	ErrDuplicateRegistration = apperrors.Sentinel(apperrors.ErrCodeDuplicateRegistration, "state already registered")

	// ErrNotRegistered is returned when a panel looks up a type it never
	// registered.
	ErrNotRegistered = apperrors.Sentinel(apperrors.ErrCodeNotRegistered, "state not registered")

	// ErrScopeClaimed is returned when a panel id is claimed twice.
	ErrScopeClaimed = apperrors.Sentinel(apperrors.ErrCodeScopeClaimed, "panel scope already claimed")
)

// Registry hands out one Scope per panel id.
type Registry struct {
	mu     sync.Mutex
	scopes map[ID]*Scope
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scopes: make(map[ID]*Scope)}
}

// Claim returns the capability for id. It succeeds once per id.
func (r *Registry) Claim(id ID) (*Scope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scopes[id]; ok {
		return nil, apperrors.Wrap(ErrScopeClaimed, apperrors.ErrCodeScopeClaimed,
			fmt.Sprintf("panel %q", id)).WithContext("panel", string(id))
	}
	s := &Scope{id: id, cells: make(map[reflect.Type]any)}
	r.scopes[id] = s
	return s, nil
}

// Panels lists claimed ids in sorted order.
func (r *Registry) Panels() []ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]ID, 0, len(r.scopes))
	for id := range r.scopes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Scope is the capability to create and find one panel's state.
type Scope struct {
	id ID

	mu    sync.Mutex
	cells map[reflect.Type]any
}

// ID returns the owning panel id.
func (s *Scope) ID() ID {
	return s.id
}

// Types lists the registered state types, for diagnostics.
func (s *Scope) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.cells))
	for t := range s.cells {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

// Cell holds one value of type T for one panel. Each cell has its own lock,
// so an update of one cell may read its siblings.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
}

// Register creates the cell of type T for the scope's panel.
func Register[T any](s *Scope, initial T) (*Cell[T], error) {
	t := reflect.TypeFor[T]()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cells[t]; ok {
		return nil, apperrors.Wrap(ErrDuplicateRegistration, apperrors.ErrCodeDuplicateRegistration,
			fmt.Sprintf("panel %q type %s", s.id, t)).
			WithContext("panel", string(s.id)).
			WithContext("type", t.String())
	}
	c := &Cell[T]{value: initial}
	s.cells[t] = c
	return c, nil
}

// Get finds the cell of type T registered by the scope's panel.
func Get[T any](s *Scope) (*Cell[T], error) {
	t := reflect.TypeFor[T]()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cells[t]
	if !ok {
		return nil, apperrors.Wrap(ErrNotRegistered, apperrors.ErrCodeNotRegistered,
			fmt.Sprintf("panel %q type %s", s.id, t)).
			WithContext("panel", string(s.id)).
			WithContext("type", t.String())
	}
	return c.(*Cell[T]), nil
}

// MustRegister is Register for assembly code; it panics on error.
func MustRegister[T any](s *Scope, initial T) *Cell[T] {
	c, err := Register(s, initial)
	if err != nil {
		panic(err)
	}
	return c
}

// MustGet is Get for assembly code; it panics on error.
func MustGet[T any](s *Scope) *Cell[T] {
	c, err := Get[T](s)
	if err != nil {
		panic(err)
	}
	return c
}

// Load returns a copy of the current value.
func (c *Cell[T]) Load() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Update mutates the value in place under the cell's exclusive lock.
// fn must not Load or Update this same cell.
func (c *Cell[T]) Update(fn func(*T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.value)
}

// Store replaces the value.
func (c *Cell[T]) Store(v T) {
	c.Update(func(p *T) { *p = v })
}
