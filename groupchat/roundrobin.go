package groupchat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/internal/ctxkeys"
	"github.com/BaSui01/roundtable/participant"
	"github.com/BaSui01/roundtable/termination"
	"github.com/BaSui01/roundtable/types"
)

const instrumentationName = "github.com/BaSui01/roundtable/groupchat"

// RoundRobin drives a fixed, ordered set of participants through a shared
// conversation. Participant j speaks at sequences j+1, j+1+N, ... (the seed
// task message holds sequence 0).
//
// One run at a time: a concurrent Run is rejected with ErrRunInProgress.
type RoundRobin struct {
	participants []participant.Participant
	names        []string
	cond         termination.Condition
	opts         options
	logger       *zap.Logger

	turnCounter metric.Int64Counter
	turnLatency metric.Float64Histogram

	mu    sync.Mutex
	state State
}

// New creates a scheduler. The participant order is the speaking order.
// A nil condition is legal; the run then ends only by cancellation or error.
func New(participants []participant.Participant, cond termination.Condition, opts ...Option) (*RoundRobin, error) {
	o := options{
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}
	if o.meter == nil {
		o.meter = otel.Meter(instrumentationName)
	}

	names, err := validateParticipants(participants)
	if err != nil {
		return nil, types.NewInvariantViolation(err)
	}

	rr := &RoundRobin{
		participants: append([]participant.Participant(nil), participants...),
		names:        names,
		cond:         cond,
		opts:         o,
		logger:       o.logger.With(zap.String("component", "groupchat")),
		state:        StateIdle,
	}

	if cond == nil {
		rr.logger.Warn("no termination condition configured; run ends only on cancellation or error")
	}

	rr.turnCounter, err = o.meter.Int64Counter("roundtable.turns",
		metric.WithDescription("Participant turns by outcome"),
		metric.WithUnit("{turn}"))
	if err != nil {
		rr.logger.Warn("turn counter unavailable", zap.Error(err))
		rr.turnCounter = noop.Int64Counter{}
	}
	rr.turnLatency, err = o.meter.Float64Histogram("roundtable.turn.duration",
		metric.WithDescription("Participant production latency"),
		metric.WithUnit("s"))
	if err != nil {
		rr.logger.Warn("turn latency histogram unavailable", zap.Error(err))
		rr.turnLatency = noop.Float64Histogram{}
	}

	return rr, nil
}

func validateParticipants(participants []participant.Participant) ([]string, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	names := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for i, p := range participants {
		if p == nil {
			return nil, fmt.Errorf("participant %d: %w", i, ErrNilParticipant)
		}
		name := p.Name()
		switch {
		case name == "":
			return nil, fmt.Errorf("participant %d: %w", i, ErrEmptyName)
		case name == types.UserSpeaker:
			return nil, fmt.Errorf("participant %d (%q): %w", i, name, ErrReservedSpeaker)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("participant %d (%q): %w", i, name, ErrDuplicateParticipant)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// =============================================================================
// 🎯 Accessors
// =============================================================================

// State returns the current lifecycle state.
func (rr *RoundRobin) State() State {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.state
}

// Participants returns the participant names in speaking order.
func (rr *RoundRobin) Participants() []string {
	return append([]string(nil), rr.names...)
}

// Condition returns the termination condition, possibly nil.
func (rr *RoundRobin) Condition() termination.Condition {
	return rr.cond
}

// Reset returns the scheduler to Idle, resets the termination condition and
// every participant that holds per-run state.
func (rr *RoundRobin) Reset() error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.state == StateRunning {
		return ErrRunInProgress
	}
	if rr.cond != nil {
		rr.cond.Reset()
	}
	for _, p := range rr.participants {
		if r, ok := p.(participant.Resetter); ok {
			r.Reset()
			continue
		}
		if r, ok := participant.Unwrap(p).(participant.Resetter); ok {
			r.Reset()
		}
	}
	rr.state = StateIdle
	return nil
}

// =============================================================================
// 🔄 Run
// =============================================================================

// Run executes one conversation seeded with task and blocks until it ends.
//
// Precondition failures return (nil, err) with code INVARIANT_VIOLATION and no
// turn runs. A cancelled run returns its result and a nil error. A failed run
// returns its result together with the error that stopped it.
func (rr *RoundRobin) Run(ctx context.Context, task string) (*types.RunResult, error) {
	return rr.run(ctx, task, nil)
}

// RunStream runs the conversation in a goroutine and yields every message,
// seed included, followed by one final Event. The channel is unbuffered: the
// next turn starts only after the consumer has received the current message.
// The consumer must read until the channel is closed.
func (rr *RoundRobin) RunStream(ctx context.Context, task string) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		emit := func(msg types.Message) error {
			select {
			case ch <- Event{Message: &msg}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		result, err := rr.run(ctx, task, emit)
		ch <- Event{Result: result, Err: err}
	}()
	return ch
}

type outcome struct {
	state       State
	reason      types.StopReason
	stopMessage string
	err         error
}

func cancelledOutcome(ctx context.Context) outcome {
	msg := "cancelled"
	if cause := context.Cause(ctx); cause != nil {
		msg = cause.Error()
	}
	return outcome{state: StateCancelled, reason: types.StopCancelled, stopMessage: msg}
}

func failedOutcome(err error) outcome {
	return outcome{state: StateFailed, reason: types.StopError, stopMessage: err.Error(), err: err}
}

func (rr *RoundRobin) begin() error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.state == StateRunning {
		return ErrRunInProgress
	}
	if rr.cond != nil {
		if rr.cond.Fired() {
			return ErrConditionFired
		}
		// 未触发但已推进的状态（计数、计时）不带入新一轮
		rr.cond.Reset()
	}
	rr.state = StateRunning
	return nil
}

func (rr *RoundRobin) end(s State) {
	rr.mu.Lock()
	rr.state = s
	rr.mu.Unlock()
}

func (rr *RoundRobin) run(ctx context.Context, task string, emit func(types.Message) error) (*types.RunResult, error) {
	if err := rr.begin(); err != nil {
		rr.logger.Warn("run rejected", zap.Error(err))
		return nil, types.NewInvariantViolation(err)
	}

	runID := rr.opts.newID()
	startedAt := time.Now()
	logger := rr.logger.With(zap.String("run_id", runID))

	ctx, span := rr.opts.tracer.Start(ctx, "groupchat.run", trace.WithAttributes(
		attribute.String("roundtable.run_id", runID),
		attribute.StringSlice("roundtable.participants", rr.names),
		attribute.String("roundtable.termination", termination.Describe(rr.cond)),
	))
	defer span.End()
	ctx = ctxkeys.WithRunID(ctx, runID)

	logger.Info("run started",
		zap.Strings("participants", rr.names),
		zap.String("termination", termination.Describe(rr.cond)),
	)
	if rr.opts.metrics != nil {
		rr.opts.metrics.RunStarted()
	}

	history := types.NewHistory(runID)
	out := rr.loop(ctx, history, task, emit, logger)
	result := types.NewRunResult(history, out.reason, out.stopMessage, out.err, startedAt)

	span.SetAttributes(
		attribute.String("roundtable.stop_reason", string(result.StopReason)),
		attribute.Int("roundtable.turns", result.Turns()),
	)
	if out.err != nil {
		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
	}
	if rr.opts.metrics != nil {
		rr.opts.metrics.RecordRun(string(result.StopReason), result.Turns(), result.Duration())
	}

	fields := []zap.Field{
		zap.String("stop_reason", string(result.StopReason)),
		zap.String("stop_message", result.StopMessage),
		zap.Int("turns", result.Turns()),
		zap.Duration("duration", result.Duration()),
	}
	if out.err != nil {
		logger.Warn("run failed", append(fields, zap.Error(out.err))...)
	} else {
		logger.Info("run finished", fields...)
	}

	rr.end(out.state)

	cctx := context.WithoutCancel(ctx)
	for _, s := range rr.opts.sinks {
		s.OnComplete(cctx, result)
	}

	return result, out.err
}

// loop seeds the history and runs turns until the condition fires, the
// context is cancelled or a turn fails.
func (rr *RoundRobin) loop(ctx context.Context, history *types.History, task string, emit func(types.Message) error, logger *zap.Logger) outcome {
	seed, err := history.Append(types.NewMessage(types.UserSpeaker, task))
	if err != nil {
		return failedOutcome(err)
	}
	if err := rr.deliver(ctx, seed, emit); err != nil {
		if ctx.Err() != nil {
			return cancelledOutcome(ctx)
		}
		return failedOutcome(err)
	}

	n := len(rr.participants)
	for i := 0; ; i++ {
		if ctx.Err() != nil {
			logger.Debug("cancellation observed before turn", zap.Int("sequence", history.Len()))
			return cancelledOutcome(ctx)
		}

		p := rr.participants[i%n]
		msg, err := rr.turn(ctx, p, history, logger)
		if ctx.Err() != nil {
			// late replies are dropped, never appended
			return cancelledOutcome(ctx)
		}
		if err != nil {
			return failedOutcome(err)
		}

		stored, err := history.Append(msg)
		if err != nil {
			return failedOutcome(types.NewParticipantError(p.Name(), history.Len(), err))
		}
		if err := rr.deliver(ctx, stored, emit); err != nil {
			if ctx.Err() != nil {
				return cancelledOutcome(ctx)
			}
			return failedOutcome(err)
		}

		if rr.cond != nil && rr.cond.Evaluate(stored) {
			return outcome{
				state:       StateCompleted,
				reason:      types.StopTerminatedByCondition,
				stopMessage: rr.cond.Reason(),
			}
		}
	}
}

// turn invokes one participant with a read-only view of the history.
func (rr *RoundRobin) turn(ctx context.Context, p participant.Participant, history *types.History, logger *zap.Logger) (types.Message, error) {
	name := p.Name()
	seq := history.Len()

	ctx, span := rr.opts.tracer.Start(ctx, "groupchat.turn", trace.WithAttributes(
		attribute.String("roundtable.participant", name),
		attribute.Int("roundtable.sequence", seq),
	))
	defer span.End()
	ctx = ctxkeys.WithTurn(ctx, name, seq)

	start := time.Now()
	msg, err := p.Produce(ctx, history.View())
	elapsed := time.Since(start)

	if err == nil && msg.Speaker != name {
		err = types.NewError(types.ErrSpeakerMismatch,
			fmt.Sprintf("message speaker %q does not match participant", msg.Speaker)).
			WithParticipant(name)
	}

	status := "success"
	switch {
	case err == nil:
	case ctx.Err() != nil:
		status = "cancelled"
	default:
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("participant", name),
		attribute.String("status", status),
	)
	rr.turnCounter.Add(ctx, 1, attrs)
	rr.turnLatency.Record(ctx, elapsed.Seconds(), attrs)
	if rr.opts.metrics != nil {
		rr.opts.metrics.RecordTurn(name, err, elapsed)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if status == "error" {
			logger.Warn("participant failed",
				zap.String("participant", name),
				zap.Int("sequence", seq),
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)
		}
		var pe *types.ParticipantError
		if !errors.As(err, &pe) {
			err = types.NewParticipantError(name, seq, err)
		}
		return types.Message{}, err
	}

	logger.Debug("turn completed",
		zap.String("participant", name),
		zap.Int("sequence", seq),
		zap.Int("content_len", len(msg.Content)),
		zap.Duration("duration", elapsed),
	)
	return msg, nil
}

// deliver hands msg to every sink in order, then to the stream consumer.
func (rr *RoundRobin) deliver(ctx context.Context, msg types.Message, emit func(types.Message) error) error {
	for _, s := range rr.opts.sinks {
		err := s.OnMessage(ctx, msg)
		if rr.opts.metrics != nil {
			rr.opts.metrics.RecordSinkDelivery(SinkName(s), err)
		}
		if err != nil {
			return types.NewError(types.ErrSinkFailed,
				fmt.Sprintf("sink %s rejected message %d", SinkName(s), msg.Sequence)).
				WithCause(err)
		}
	}
	if emit != nil {
		return emit(msg)
	}
	return nil
}
