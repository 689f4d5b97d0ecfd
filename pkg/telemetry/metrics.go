// Package telemetry holds the prometheus metrics and OpenTelemetry tracing
// used by the frame loop.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mosaic"

// Metrics are the frame loop's prometheus collectors.
type Metrics struct {
	Frames               prometheus.Counter
	FramesDiscarded      prometheus.Counter
	FrameDuration        prometheus.Histogram
	DrawRequests         prometheus.Histogram
	BehaviorsRun         *prometheus.CounterVec
	BehaviorsSkipped     *prometheus.CounterVec
	PresentationFailures prometheus.Counter
}

// NewMetrics registers the collectors with reg. A nil reg creates an
// unregistered set, which is what tests and the default App use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "presented_total",
			Help:      "Total number of frames presented",
		}),
		FramesDiscarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "discarded_total",
			Help:      "Total number of frames dropped without presenting",
		}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "duration_seconds",
			Help:      "Time from event refresh to present",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10), // 0.5ms to ~250ms
		}),
		DrawRequests: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "draw_requests",
			Help:      "Draw requests flushed per frame",
			Buckets:   prometheus.LinearBuckets(0, 4, 10),
		}),
		BehaviorsRun: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "behavior",
			Name:      "run_total",
			Help:      "Behaviors executed, by phase",
		}, []string{"phase"}),
		BehaviorsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "behavior",
			Name:      "skipped_total",
			Help:      "Behaviors skipped by a closed gate, by phase",
		}, []string{"phase"}),
		PresentationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "presentation_failures_total",
			Help:      "Backend Show failures",
		}),
	}
}

// ObserveFrame records one presented frame.
func (m *Metrics) ObserveFrame(d time.Duration, requests int) {
	m.Frames.Inc()
	m.FrameDuration.Observe(d.Seconds())
	m.DrawRequests.Observe(float64(requests))
}
