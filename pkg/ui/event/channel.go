// Package event holds the single backend event shared by every panel for
// the duration of one frame.
package event

import (
	"sync/atomic"

	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

type slot struct {
	ev terminal.Event
}

// Channel is a one-deep, overwrite-on-refresh event slot.
//
// Refresh is called once per frame by the scheduler before any panel runs;
// Peek may be called any number of times by any panel and never consumes.
type Channel struct {
	cur atomic.Pointer[slot]
	gen atomic.Uint64
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Refresh overwrites the held event. A nil event clears it, so a frame with
// no input never observes the previous frame's event.
func (c *Channel) Refresh(ev terminal.Event) {
	c.cur.Store(&slot{ev: ev})
	c.gen.Add(1)
}

// Peek returns the event of the current frame, if any.
func (c *Channel) Peek() (terminal.Event, bool) {
	s := c.cur.Load()
	if s == nil || s.ev == nil {
		return nil, false
	}
	return s.ev, true
}

// Generation counts refreshes since creation.
func (c *Channel) Generation() uint64 {
	return c.gen.Load()
}
