package groupchat

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/internal/metrics"
)

type options struct {
	sinks   []Sink
	logger  *zap.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *metrics.Collector
	newID   func() string
}

// Option configures a RoundRobin.
type Option func(*options)

// WithSinks registers sinks, delivered to in the given order.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) {
		for _, s := range sinks {
			if s != nil {
				o.sinks = append(o.sinks, s)
			}
		}
	}
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the tracer for run and turn spans. Default: the global
// provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithMeter sets the OTel meter for turn instruments. Default: the global
// provider.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithMetrics reports runs and turns to a Prometheus collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// WithRunIDGenerator overrides the run ID source (UUIDv4 by default).
func WithRunIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}
