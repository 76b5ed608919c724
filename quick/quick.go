// =============================================================================
// Package quick - One-Call Team Construction
// =============================================================================
// Builds a round-robin team (participants, termination, sinks) from the YAML
// chat configuration so callers and the CLI share one wiring path.
//
// Usage:
//
//	import "github.com/BaSui01/roundtable/quick"
//
//	team, err := quick.New(cfg.Chat, quick.WithLogger(logger))
//	res, err := team.Run(ctx, cfg.Chat.Task)
//	team.Stop.Set() // ends the run after the current turn
//
// =============================================================================
package quick

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/internal/metrics"
	"github.com/BaSui01/roundtable/internal/retry"
	"github.com/BaSui01/roundtable/participant"
	"github.com/BaSui01/roundtable/termination"
)

// Option configures the team created by New.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	sinks   []groupchat.Sink
	metrics *metrics.Collector
	tracer  trace.Tracer
	meter   metric.Meter
	extra   []participant.Participant
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSinks adds message sinks, called in order.
func WithSinks(sinks ...groupchat.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

// WithMetrics records Prometheus metrics through c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMeter overrides the OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithParticipants appends participants built in code (e.g. model-backed
// assistants) after the configured ones.
func WithParticipants(ps ...participant.Participant) Option {
	return func(o *options) { o.extra = append(o.extra, ps...) }
}

// Team is a configured scheduler plus the switch that stops it from outside.
type Team struct {
	*groupchat.RoundRobin

	// Stop ends the current run after the in-flight turn completes.
	Stop *termination.External
}

// New builds a Team from cfg.
func New(cfg config.ChatConfig, opts ...Option) (*Team, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	ps, err := Participants(cfg.Participants, o.logger)
	if err != nil {
		return nil, err
	}
	ps = append(ps, o.extra...)

	cond, stop := Termination(cfg.Termination)

	gopts := []groupchat.Option{
		groupchat.WithLogger(o.logger),
		groupchat.WithSinks(o.sinks...),
	}
	if o.metrics != nil {
		gopts = append(gopts, groupchat.WithMetrics(o.metrics))
	}
	if o.tracer != nil {
		gopts = append(gopts, groupchat.WithTracer(o.tracer))
	}
	if o.meter != nil {
		gopts = append(gopts, groupchat.WithMeter(o.meter))
	}

	rr, err := groupchat.New(ps, cond, gopts...)
	if err != nil {
		return nil, err
	}
	return &Team{RoundRobin: rr, Stop: stop}, nil
}

// Participants builds the configured participants in speaking order.
func Participants(pcs []config.ParticipantConfig, logger *zap.Logger) ([]participant.Participant, error) {
	out := make([]participant.Participant, 0, len(pcs))
	for _, pc := range pcs {
		p, err := buildParticipant(pc, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// buildParticipant wraps the base participant as retry(timeout(ratelimit(p))),
// so every attempt gets its own deadline.
func buildParticipant(pc config.ParticipantConfig, logger *zap.Logger) (participant.Participant, error) {
	var p participant.Participant
	switch pc.Kind {
	case "", config.KindScripted:
		var sopts []participant.ScriptOption
		if pc.Cycle {
			sopts = append(sopts, participant.WithCycle())
		}
		if pc.Latency > 0 {
			sopts = append(sopts, participant.WithLatency(pc.Latency))
		}
		p = participant.NewScripted(pc.Name, pc.Replies, sopts...)
	case config.KindEcho:
		p = participant.Echo(pc.Name)
	default:
		return nil, fmt.Errorf("participant %q: unknown kind %q", pc.Name, pc.Kind)
	}

	if pc.RateLimitRPS > 0 {
		p = participant.WithRateLimit(p, pc.RateLimitRPS, 1)
	}
	if pc.Timeout > 0 {
		p = participant.WithTimeout(p, pc.Timeout)
	}
	if pc.MaxRetries > 0 {
		policy := retry.DefaultPolicy()
		policy.MaxRetries = pc.MaxRetries
		p = participant.WithRetry(p, policy, logger)
	}
	return p, nil
}

// Termination ORs the configured conditions with an External stop switch.
// With nothing configured the run only ends through the switch or
// cancellation.
func Termination(tc config.TerminationConfig) (termination.Condition, *termination.External) {
	stop := termination.NewExternal()
	conds := []termination.Condition{stop}

	if tc.TextMention != "" {
		conds = append(conds, termination.NewTextMention(tc.TextMention, tc.TextMentionSources...))
	}
	if tc.MaxTurns > 0 {
		conds = append(conds, termination.NewMaxTurns(tc.MaxTurns))
	}
	if len(tc.Sources) > 0 {
		conds = append(conds, termination.NewSourceMatch(tc.Sources...))
	}
	if tc.Timeout > 0 {
		conds = append(conds, termination.NewTimeout(tc.Timeout))
	}

	if len(conds) == 1 {
		return stop, stop
	}
	return termination.NewOr(conds[0], conds[1], conds[2:]...), stop
}
