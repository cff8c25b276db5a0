// Package metrics exposes Prometheus instrumentation for reviews and
// completion calls.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sevigo/code-pilot/internal/core"
)

const namespace = "codepilot"

// Review outcomes.
const (
	OutcomeCompleted  = "completed"
	OutcomeFailed     = "failed"
	OutcomeOverloaded = "overloaded"
	OutcomeRejected   = "rejected"
	OutcomeCancelled  = "cancelled"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	completionCalls    *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	reviews            *prometheus.CounterVec
	reviewChunks       prometheus.Histogram
	activeReviews      prometheus.Gauge
	savedReviews       prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		completionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_calls_total",
			Help:      "Completion calls by call kind and result.",
		}, []string{"kind", "result"}),
		completionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_call_duration_seconds",
			Help:      "Latency of completion calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"kind"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Finished review operations by outcome.",
		}, []string{"outcome"}),
		reviewChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "review_chunks",
			Help:      "Number of chunks per review.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		activeReviews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reviews_in_flight",
			Help:      "Reviews currently running.",
		}),
		savedReviews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_saved_total",
			Help:      "Reviews persisted to the library.",
		}),
	}

	m.registry.MustRegister(
		m.completionCalls,
		m.completionDuration,
		m.reviews,
		m.reviewChunks,
		m.activeReviews,
		m.savedReviews,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ReviewStarted marks a review as in flight. The returned func records its
// outcome and must be called exactly once.
func (m *Metrics) ReviewStarted() func(outcome string) {
	m.activeReviews.Inc()
	return func(outcome string) {
		m.activeReviews.Dec()
		m.reviews.WithLabelValues(outcome).Inc()
	}
}

// Observe records what a single review event says about the operation.
func (m *Metrics) Observe(ev core.Event) {
	switch ev.Kind {
	case core.EventLoadingFirst:
		if ev.ChunkIndex == 0 {
			m.reviewChunks.Observe(float64(ev.ChunkCount))
		}
	case core.EventSaved:
		m.savedReviews.Inc()
	}
}

// OutcomeOf maps a terminal event to an outcome label. A nil event means the
// stream ended without one, which only happens on cancellation.
func OutcomeOf(ev *core.Event) string {
	if ev == nil {
		return OutcomeCancelled
	}
	if ev.Kind == core.EventDone {
		return OutcomeCompleted
	}
	switch {
	case core.IsValidation(ev.Err):
		return OutcomeRejected
	case core.IsOverloaded(ev.Err):
		return OutcomeOverloaded
	default:
		return OutcomeFailed
	}
}

// InstrumentClient wraps next so every completion call is counted and timed.
func (m *Metrics) InstrumentClient(next core.CompletionClient) core.CompletionClient {
	return &instrumentedClient{next: next, metrics: m}
}

type instrumentedClient struct {
	next    core.CompletionClient
	metrics *Metrics
}

func (c *instrumentedClient) Complete(ctx context.Context, req core.CompletionRequest) (core.CompletionResult, error) {
	kind := "first"
	if req.IsContinuation {
		kind = "continuation"
	}

	start := time.Now()
	res, err := c.next.Complete(ctx, req)
	c.metrics.completionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	c.metrics.completionCalls.WithLabelValues(kind, callResult(err)).Inc()
	return res, err
}

func callResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case core.IsOverloaded(core.ClassifyBackendError(err)):
		return "overloaded"
	default:
		return "error"
	}
}
