// Package runtime schedules panels frame by frame: refresh the event,
// apply state transitions, run gated update behaviors, run gated render
// behaviors, then flush the draw list once.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
	"github.com/odvcencio/mosaic/pkg/logging"
	"github.com/odvcencio/mosaic/pkg/telemetry"
	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/compositor"
	"github.com/odvcencio/mosaic/pkg/ui/drawlist"
	"github.com/odvcencio/mosaic/pkg/ui/event"
	"github.com/odvcencio/mosaic/pkg/ui/panel"
	"github.com/odvcencio/mosaic/pkg/ui/terminal"
)

const defaultWorkers = 4

const (
	phaseUpdate = "update"
	phaseRender = "render"
)

// Config configures an App.
type Config struct {
	Backend backend.Backend

	// Workers bounds how many panels run in parallel within a phase.
	Workers int

	// MaxFPS paces Run. Zero runs frames back to back.
	MaxFPS float64

	// PollTimeout bounds the wait for input at frame start.
	PollTimeout time.Duration

	// ExternalEvents disables polling; each frame's event comes only from
	// Refresh.
	ExternalEvents bool

	Logger  *logging.Logger
	Metrics *telemetry.Metrics
	Tracer  trace.Tracer
}

// Transitioner is a frame-boundary state, such as gate.State.
type Transitioner interface {
	Apply() bool
}

// FrameResult describes one Step.
type FrameResult struct {
	Frame     uint64
	Event     terminal.Event
	Stats     compositor.Stats
	Presented bool
	Exited    bool
}

// App owns the panel registry, the event channel, the draw list and the
// compositor for one backend.
type App struct {
	cfg      Config
	be       backend.Backend
	registry *panel.Registry
	events   *event.Channel
	list     *drawlist.List
	comp     *compositor.Compositor

	log     *logging.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	mu       sync.Mutex
	panels   []*Panel
	states   []Transitioner
	injected terminal.Event
	hasEvent bool

	frame atomic.Uint64
	exit  atomic.Bool
	runID string
}

// New creates an App. Missing logger, metrics and tracer get no-op defaults.
func New(cfg Config) *App {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetrics(nil)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = telemetry.Tracer()
	}

	a := &App{
		cfg:      cfg,
		be:       cfg.Backend,
		registry: panel.NewRegistry(),
		events:   event.NewChannel(),
		list:     drawlist.New(),
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		runID:    ulid.Make().String(),
	}
	if a.be != nil {
		a.comp = compositor.New(a.be, a.list,
			compositor.WithTracer(cfg.Tracer),
			compositor.WithLogger(cfg.Logger.WithPhase("flush")),
		)
	}
	return a
}

// AddPanel claims id and lets setup register state and behaviors.
func (a *App) AddPanel(id panel.ID, setup func(p *Panel) error) error {
	scope, err := a.registry.Claim(id)
	if err != nil {
		return err
	}
	p := &Panel{id: id, scope: scope}
	if setup != nil {
		if err := setup(p); err != nil {
			return fmt.Errorf("setup panel %q: %w", id, err)
		}
	}

	a.mu.Lock()
	a.panels = append(a.panels, p)
	a.mu.Unlock()

	a.log.PanelRegistered(string(id), len(p.updates), len(p.renders))
	return nil
}

// AddState registers a transition applied at the start of every frame.
func (a *App) AddState(t Transitioner) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states = append(a.states, t)
}

// Refresh queues ev as the next frame's event, replacing whatever the
// frame would have polled.
func (a *App) Refresh(ev terminal.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.injected = ev
	a.hasEvent = true
}

// Exit stops Run after the current frame, which is discarded. Exit is
// sticky: every later Step is discarded too until Resume is called. Run
// resumes on entry.
func (a *App) Exit() { a.exit.Store(true) }

// Resume clears a pending exit so Step presents frames again.
func (a *App) Resume() { a.exit.Store(false) }

// Frame returns the number of the last frame started.
func (a *App) Frame() uint64 { return a.frame.Load() }

// RunID identifies this App in logs and traces.
func (a *App) RunID() string { return a.runID }

// Panels lists registered panel ids.
func (a *App) Panels() []panel.ID { return a.registry.Panels() }

func (a *App) snapshot() ([]*Panel, []Transitioner) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Panel(nil), a.panels...), append([]Transitioner(nil), a.states...)
}

func (a *App) nextEvent() terminal.Event {
	a.mu.Lock()
	ev, ok := a.injected, a.hasEvent
	a.injected, a.hasEvent = nil, false
	a.mu.Unlock()

	if ok || a.cfg.ExternalEvents {
		return ev
	}
	return a.be.PollEvent(a.cfg.PollTimeout)
}

// Step runs exactly one frame. After an exit, frames keep being discarded
// and reported as Exited until Resume.
func (a *App) Step(ctx context.Context) (FrameResult, error) {
	if a.be == nil {
		return FrameResult{}, apperrors.New(apperrors.ErrCodeInternal, "backend is required")
	}
	if err := ctx.Err(); err != nil {
		return FrameResult{}, err
	}

	start := time.Now()
	frame := a.frame.Add(1)
	res := FrameResult{Frame: frame}

	ctx, span := a.tracer.Start(ctx, "frame", trace.WithAttributes(
		telemetry.AttrFrame.Int64(int64(frame)),
		telemetry.AttrRunID.String(a.runID),
	))
	defer span.End()

	panels, states := a.snapshot()

	ev := a.nextEvent()
	a.events.Refresh(ev)
	a.list.Reset()
	res.Event = ev
	if gen := a.events.Generation(); gen != frame {
		return a.fail(res, span, apperrors.Newf(apperrors.ErrCodeInternal,
			"event channel refreshed %d times in %d frames", gen, frame))
	}
	span.SetAttributes(telemetry.AttrEvent.String(terminal.Describe(ev)))
	if _, ok := ev.(terminal.ResizeEvent); ok {
		a.be.Sync()
	}

	for _, st := range states {
		st.Apply()
	}

	w, h := a.be.Size()
	area := backend.NewRect(0, 0, w, h)

	if err := a.runPhase(ctx, phaseUpdate, panels, frame, area); err != nil {
		return a.fail(res, span, err)
	}
	if a.exit.Load() {
		return a.discard(res, "exit"), nil
	}

	if err := a.runPhase(ctx, phaseRender, panels, frame, area); err != nil {
		return a.fail(res, span, err)
	}
	if a.exit.Load() {
		return a.discard(res, "exit"), nil
	}
	if ctx.Err() != nil {
		a.discard(res, "cancelled")
		return res, ctx.Err()
	}

	stats, err := a.comp.Flush(ctx)
	res.Stats = stats
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodePresentationFailed) {
			a.metrics.PresentationFailures.Inc()
			a.log.PresentationFailed(frame, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "flush failed")
		return res, err
	}

	res.Presented = true
	a.metrics.ObserveFrame(time.Since(start), stats.Requests)
	return res, nil
}

func (a *App) fail(res FrameResult, span trace.Span, err error) (FrameResult, error) {
	a.discard(res, "behavior error")
	span.RecordError(err)
	span.SetStatus(codes.Error, "behavior failed")
	return res, err
}

func (a *App) discard(res FrameResult, reason string) FrameResult {
	n := a.list.Discard()
	a.metrics.FramesDiscarded.Inc()
	a.log.FrameDiscarded(res.Frame, n, reason)
	res.Exited = a.exit.Load()
	return res
}

// runPhase runs one phase: panels in parallel, each panel's behaviors in
// order on a single goroutine.
func (a *App) runPhase(ctx context.Context, phase string, panels []*Panel, frame uint64, area backend.Rect) error {
	ctx, span := a.tracer.Start(ctx, phase, trace.WithAttributes(telemetry.AttrPhase.String(phase)))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for _, p := range panels {
		if !p.has(phase) {
			continue
		}
		g.Go(func() error {
			return a.runPanel(gctx, phase, p, frame, area)
		})
	}
	return g.Wait()
}

func (a *App) runPanel(ctx context.Context, phase string, p *Panel, frame uint64, area backend.Rect) (err error) {
	index := -1
	defer func() {
		if r := recover(); r != nil {
			err = behaviorPanic(r, p.id, phase, index)
		}
	}()

	fc := frameContext{
		ctx:   ctx,
		app:   a,
		panel: p,
		frame: frame,
		area:  area,
		log:   a.log.WithPanel(string(p.id)).WithFrame(frame).WithPhase(phase),
	}

	run := a.metrics.BehaviorsRun.WithLabelValues(phase)
	skip := a.metrics.BehaviorsSkipped.WithLabelValues(phase)

	switch phase {
	case phaseUpdate:
		uctx := &UpdateContext{frameContext: fc}
		for i, b := range p.updates {
			index = i
			if !b.gate.Open() {
				skip.Inc()
				a.log.BehaviorSkipped(string(p.id), phase, i)
				continue
			}
			run.Inc()
			if err := b.fn(uctx); err != nil {
				return behaviorFailed(err, p.id, phase, i)
			}
		}
	case phaseRender:
		rctx := &RenderContext{frameContext: fc}
		for i, b := range p.renders {
			index = i
			if !b.gate.Open() {
				skip.Inc()
				a.log.BehaviorSkipped(string(p.id), phase, i)
				continue
			}
			run.Inc()
			if err := b.fn(rctx); err != nil {
				return behaviorFailed(err, p.id, phase, i)
			}
		}
	}
	return nil
}

func behaviorFailed(err error, id panel.ID, phase string, index int) error {
	return apperrors.Wrap(err, apperrors.ErrCodeBehaviorFailed, fmt.Sprintf("%s behavior failed", phase)).
		WithContext("panel", string(id)).
		WithContext("phase", phase).
		WithContext("index", index)
}

func behaviorPanic(r any, id panel.ID, phase string, index int) error {
	var e *apperrors.Error
	if err, ok := r.(error); ok {
		e = apperrors.Wrap(err, apperrors.ErrCodeBehaviorPanic, fmt.Sprintf("%s behavior panicked", phase))
	} else {
		e = apperrors.Newf(apperrors.ErrCodeBehaviorPanic, "%s behavior panicked: %v", phase, r)
	}
	return e.WithContext("panel", string(id)).
		WithContext("phase", phase).
		WithContext("index", index)
}

// Run initializes the backend and steps frames until a behavior exits, ctx
// is cancelled, or a frame fails. The terminal is restored on every path.
func (a *App) Run(ctx context.Context) error {
	if a.be == nil {
		return apperrors.New(apperrors.ErrCodeInternal, "backend is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.be.Init(); err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer a.be.Fini()
	a.be.HideCursor()
	a.Resume()

	log := a.log.WithRun(a.runID)
	log.Info("run started", "panels", len(a.Panels()), "max_fps", a.cfg.MaxFPS)

	var limiter *rate.Limiter
	if a.cfg.MaxFPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.cfg.MaxFPS), 1)
	}

	for {
		if err := pace(ctx, limiter); err != nil {
			return err
		}

		res, err := a.Step(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return ctxErr
			}
			log.Error("frame failed", "frame", res.Frame, "error", err.Error())
			return err
		}
		if res.Exited {
			log.Info("run finished", "frames", res.Frame)
			return nil
		}
	}
}

// pace waits for the limiter's next slot. Unlike rate.Limiter.Wait it
// reports only ctx errors, so a deadline ends Run the same way a cancel does.
func pace(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	r := limiter.Reserve()
	d := r.Delay()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
