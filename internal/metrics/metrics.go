// Package metrics exposes viewer activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dshills/modelview/internal/pending"
	"github.com/dshills/modelview/internal/request"
)

// Collector records request and pass activity. It implements
// pending.Observer.
type Collector struct {
	issued      *prometheus.CounterVec
	coalesced   *prometheus.CounterVec
	completed   *prometheus.CounterVec
	discarded   *prometheus.CounterVec
	duplicated  *prometheus.CounterVec
	inflight    prometheus.Gauge
	passes      *prometheus.CounterVec
	passSeconds prometheus.Histogram
	deltaNodes  *prometheus.CounterVec
}

var _ pending.Observer = (*Collector)(nil)

// New registers the viewer metrics with reg. A nil reg uses a private
// registry, which keeps tests and multiple viewers independent.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Collector{
		issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelview_requests_issued_total",
			Help: "Update requests dispatched to the model",
		}, []string{"kind"}),
		coalesced: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelview_requests_coalesced_total",
			Help: "Update requests merged into an in-flight request",
		}, []string{"kind"}),
		completed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelview_requests_completed_total",
			Help: "Update requests completed and applied",
		}, []string{"kind", "status"}),
		discarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelview_requests_discarded_total",
			Help: "Completions discarded as stale, superseded or unknown",
		}, []string{"kind"}),
		duplicated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelview_requests_duplicate_completions_total",
			Help: "Terminal calls on requests that had already completed",
		}, []string{"kind"}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "modelview_requests_inflight",
			Help: "Update requests awaiting completion",
		}),
		passes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelview_passes_total",
			Help: "Reconciliation and refresh passes by outcome",
		}, []string{"outcome"}),
		passSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelview_pass_duration_seconds",
			Help:    "Time from pass start until its last result was applied",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		deltaNodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modelview_delta_nodes_total",
			Help: "Delta nodes processed by effect",
		}, []string{"effect"}),
	}
}

// Issued implements pending.Observer.
func (c *Collector) Issued(kind request.Kind) {
	c.issued.WithLabelValues(kind.String()).Inc()
	c.inflight.Inc()
}

// Coalesced implements pending.Observer.
func (c *Collector) Coalesced(kind request.Kind) {
	c.coalesced.WithLabelValues(kind.String()).Inc()
}

// Completed implements pending.Observer.
func (c *Collector) Completed(kind request.Kind, failed bool) {
	status := "ok"
	if failed {
		status = "failed"
	}
	c.completed.WithLabelValues(kind.String(), status).Inc()
	c.inflight.Dec()
}

// Discarded implements pending.Observer.
func (c *Collector) Discarded(kind request.Kind) {
	c.discarded.WithLabelValues(kind.String()).Inc()
	c.inflight.Dec()
}

// Duplicated implements pending.Observer.
func (c *Collector) Duplicated(kind request.Kind) {
	c.duplicated.WithLabelValues(kind.String()).Inc()
}

// PassDone implements pending.Observer.
func (c *Collector) PassDone(superseded bool, elapsed time.Duration) {
	if superseded {
		c.passes.WithLabelValues("superseded").Inc()
		return
	}
	c.passes.WithLabelValues("complete").Inc()
	c.passSeconds.Observe(elapsed.Seconds())
}

// DeltaApplied records the effects of one delta application.
func (c *Collector) DeltaApplied(visited, added, removed, replaced, skipped int) {
	c.deltaNodes.WithLabelValues("visited").Add(float64(visited))
	c.deltaNodes.WithLabelValues("added").Add(float64(added))
	c.deltaNodes.WithLabelValues("removed").Add(float64(removed))
	c.deltaNodes.WithLabelValues("replaced").Add(float64(replaced))
	c.deltaNodes.WithLabelValues("skipped").Add(float64(skipped))
}
