// Package compositor flushes one frame's draw list to a backend: drain in z
// order, clear, draw each request into its clipped area, then present once.
package compositor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
	"github.com/odvcencio/mosaic/pkg/logging"
	"github.com/odvcencio/mosaic/pkg/telemetry"
	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/drawlist"
)

// ErrPresentationFailed matches any error from a failed backend Show.
var ErrPresentationFailed = apperrors.Sentinel(apperrors.ErrCodePresentationFailed, "presentation failed")

// ErrAlreadyFlushed is returned by a second Flush within one frame.
var ErrAlreadyFlushed = apperrors.Sentinel(apperrors.ErrCodeAlreadyFlushed, "frame already flushed")

// Stats describes one flush.
type Stats struct {
	// Requests is the number of drawables invoked.
	Requests int
	// Skipped counts requests whose area was empty after clipping, or that
	// were discarded by cancellation.
	Skipped  int
	Duration time.Duration
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithTracer records a span per flush.
func WithTracer(t trace.Tracer) Option {
	return func(c *Compositor) { c.tracer = t }
}

// WithLogger sets the compositor's logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Compositor) { c.log = l }
}

// Compositor owns the present step for one backend and draw list.
type Compositor struct {
	be     backend.Presenter
	list   *drawlist.List
	tracer trace.Tracer
	log    *logging.Logger
}

// New creates a compositor.
func New(be backend.Presenter, list *drawlist.List, opts ...Option) *Compositor {
	c := &Compositor{
		be:     be,
		list:   list,
		tracer: noop.NewTracerProvider().Tracer(""),
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Flush draws every pending request and presents the frame. A cancelled
// ctx discards the frame without touching the backend. Show errors are
// reported as PRESENTATION_FAILED and never retried.
func (c *Compositor) Flush(ctx context.Context) (Stats, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "compositor.flush")
	defer span.End()

	if c.list.Sealed() {
		return Stats{}, apperrors.Wrap(ErrAlreadyFlushed, apperrors.ErrCodeAlreadyFlushed, "flush called twice in one frame")
	}
	if err := ctx.Err(); err != nil {
		n := c.list.Discard()
		span.SetAttributes(telemetry.AttrSkipped.Int(n))
		return Stats{Skipped: n, Duration: time.Since(start)}, err
	}

	reqs := c.list.DrainSorted()
	var stats Stats

	c.be.Clear()
	for _, req := range reqs {
		dst := backend.Clip(c.be, req.Area)
		if dst.Area().Empty() {
			c.log.Debug("draw request clipped out", "area", req.Area.String(), "z", req.Z)
			stats.Skipped++
			continue
		}
		req.Drawable.Draw(dst)
		stats.Requests++
	}

	err := c.be.Show()
	stats.Duration = time.Since(start)
	span.SetAttributes(
		telemetry.AttrRequests.Int(stats.Requests),
		telemetry.AttrSkipped.Int(stats.Skipped),
	)
	if err != nil {
		perr := apperrors.Wrap(err, apperrors.ErrCodePresentationFailed, "backend show failed").
			WithContext("requests", stats.Requests)
		span.RecordError(perr)
		span.SetStatus(codes.Error, "presentation failed")
		return stats, perr
	}
	return stats, nil
}
