package viewer

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/modelview/internal/metrics"
	"github.com/dshills/modelview/internal/selection"
	"github.com/dshills/modelview/internal/uiloop"
)

// AutoExpandAll expands every level as content arrives.
const AutoExpandAll = -1

// Option configures a Viewer.
type Option func(*Viewer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithLoop sets the UI loop completions are posted to. Without one the
// viewer creates a private loop that its owner must drain through Loop.
func WithLoop(l *uiloop.Loop) Option {
	return func(v *Viewer) {
		if l != nil {
			v.loop = l
		}
	}
}

// WithMetrics records request and pass activity.
func WithMetrics(c *metrics.Collector) Option {
	return func(v *Viewer) {
		v.metrics = c
	}
}

// WithTracer sets the tracer used for pass spans.
func WithTracer(t trace.Tracer) Option {
	return func(v *Viewer) {
		if t != nil {
			v.tracer = t
		}
	}
}

// WithAutoExpand expands items whose depth is below level as they are
// populated. Zero disables auto expansion; AutoExpandAll expands
// everything.
func WithAutoExpand(level int) Option {
	return func(v *Viewer) {
		v.autoExpand = level
	}
}

// WithArbiter replaces the selection arbiter.
func WithArbiter(a *selection.Arbiter) Option {
	return func(v *Viewer) {
		if a != nil {
			v.arbiter = a
		}
	}
}
