package runtime

import (
	"context"

	"github.com/odvcencio/mosaic/pkg/logging"
	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/drawlist"
	"github.com/odvcencio/mosaic/pkg/ui/panel"
	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

type frameContext struct {
	ctx   context.Context
	app   *App
	panel *Panel
	frame uint64
	area  backend.Rect
	log   *logging.Logger
}

// Context returns the frame's context.
func (c *frameContext) Context() context.Context { return c.ctx }

// Event returns this frame's backend event, or nil when there was none.
// Every panel sees the same value for the whole frame.
func (c *frameContext) Event() terminal.Event {
	ev, _ := c.app.events.Peek()
	return ev
}

// Frame returns the frame number, starting at 1.
func (c *frameContext) Frame() uint64 { return c.frame }

// Area returns the full screen rect for this frame.
func (c *frameContext) Area() backend.Rect { return c.area }

// Scope returns the running panel's state capability.
func (c *frameContext) Scope() *panel.Scope { return c.panel.scope }

// Panel returns the running panel's id.
func (c *frameContext) Panel() panel.ID { return c.panel.id }

// Logger returns a logger tagged with panel, frame and phase.
func (c *frameContext) Logger() *logging.Logger { return c.log }

// Exit asks the app to stop. The current frame is discarded.
func (c *frameContext) Exit() { c.app.exit.Store(true) }

// UpdateContext is passed to update behaviors.
type UpdateContext struct {
	frameContext
}

// RenderContext is passed to render behaviors.
type RenderContext struct {
	frameContext
}

// Draw pushes d for this frame. Pushing after the frame has been drained
// is a programmer error and panics with STALE_FRAME_PUSH.
func (c *RenderContext) Draw(d drawlist.Drawable, area backend.Rect, z int) {
	if err := c.app.list.Push(d, area, z); err != nil {
		panic(err)
	}
}
