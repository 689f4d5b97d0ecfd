// Package drawlist collects one frame's draw requests from many panels and
// hands them to the compositor in z order.
package drawlist

import (
	"sort"
	"sync"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
	"github.com/odvcencio/mosaic/pkg/ui/backend"
)

// ErrStaleFramePush is returned by Push once the frame has been drained.
var ErrStaleFramePush = apperrors.Sentinel(apperrors.ErrCodeStaleFramePush, "push after frame drain")

// Drawable paints itself into a target already clipped and offset to its
// request's area.
type Drawable interface {
	Draw(dst backend.RenderTarget)
}

// DrawFunc adapts a function to Drawable.
type DrawFunc func(dst backend.RenderTarget)

// Draw calls f.
func (f DrawFunc) Draw(dst backend.RenderTarget) { f(dst) }

// Request is one pending draw. Seq records push order within the frame.
type Request struct {
	Drawable Drawable
	Area     backend.Rect
	Z        int
	Seq      uint64
}

// List is the per-frame draw buffer. Push is safe for concurrent use.
type List struct {
	mu     sync.Mutex
	reqs   []Request
	seq    uint64
	sealed bool
}

// New creates an open, empty list.
func New() *List {
	return &List{reqs: make([]Request, 0, 16)}
}

// Push appends a request. Lower z draws first; equal z draws in push order.
func (l *List) Push(d Drawable, area backend.Rect, z int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sealed {
		return apperrors.Wrap(ErrStaleFramePush, apperrors.ErrCodeStaleFramePush, "frame already drained").
			WithContext("z", z).
			WithContext("area", area.String())
	}
	l.seq++
	l.reqs = append(l.reqs, Request{Drawable: d, Area: area, Z: z, Seq: l.seq})
	return nil
}

// DrainSorted returns every pending request in draw order, empties the list
// and seals it until the next Reset.
func (l *List) DrainSorted() []Request {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.reqs
	sortRequests(out)
	l.reqs = make([]Request, 0, cap(out))
	l.sealed = true
	return out
}

// Discard drops every pending request without drawing and seals the list.
// It returns how many requests were dropped.
func (l *List) Discard() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.reqs)
	l.reqs = l.reqs[:0]
	l.sealed = true
	return n
}

// Reset empties and reopens the list for a new frame.
func (l *List) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reqs = l.reqs[:0]
	l.seq = 0
	l.sealed = false
}

// Len reports the number of pending requests.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.reqs)
}

// Sealed reports whether the list has been drained or discarded this frame.
func (l *List) Sealed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sealed
}

// Snapshot returns the pending requests in draw order without draining.
func (l *List) Snapshot() []Request {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Request, len(l.reqs))
	copy(out, l.reqs)
	sortRequests(out)
	return out
}

func sortRequests(reqs []Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].Z != reqs[j].Z {
			return reqs[i].Z < reqs[j].Z
		}
		return reqs[i].Seq < reqs[j].Seq
	})
}
