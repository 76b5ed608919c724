package participant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/roundtable/internal/retry"
	"github.com/BaSui01/roundtable/types"
)

// =============================================================================
// Timeout
// =============================================================================

type timeoutParticipant struct {
	inner Participant
	limit time.Duration
}

// WithTimeout fails a turn that takes longer than limit. The inner participant
// receives a context with the deadline; if it ignores it, its late result is
// discarded.
func WithTimeout(p Participant, limit time.Duration) Participant {
	if p == nil || limit <= 0 {
		return p
	}
	return &timeoutParticipant{inner: p, limit: limit}
}

func (t *timeoutParticipant) Name() string { return t.inner.Name() }

// Unwrap returns the decorated participant.
func (t *timeoutParticipant) Unwrap() Participant { return t.inner }

type produceResult struct {
	msg types.Message
	err error
}

func (t *timeoutParticipant) Produce(ctx context.Context, history types.View) (types.Message, error) {
	tctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()

	done := make(chan produceResult, 1)
	go func() {
		msg, err := t.inner.Produce(tctx, history)
		done <- produceResult{msg: msg, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return types.Message{}, t.timeoutError(res.err)
		}
		return res.msg, res.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return types.Message{}, ctx.Err()
		}
		return types.Message{}, t.timeoutError(tctx.Err())
	}
}

func (t *timeoutParticipant) timeoutError(cause error) error {
	return types.NewError(types.ErrParticipantTimeout,
		fmt.Sprintf("turn exceeded %s", t.limit)).
		WithParticipant(t.inner.Name()).
		WithRetryable(true).
		WithCause(cause)
}

// =============================================================================
// Retry
// =============================================================================

type retryParticipant struct {
	inner   Participant
	retryer *retry.Retryer
}

// WithRetry retries failed turns according to policy. Only errors accepted by
// policy.Retryable (types.IsRetryable by default) are retried.
func WithRetry(p Participant, policy retry.Policy, logger *zap.Logger) Participant {
	if p == nil {
		return p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryParticipant{
		inner:   p,
		retryer: retry.New(policy, logger.With(zap.String("participant", p.Name()))),
	}
}

func (r *retryParticipant) Name() string { return r.inner.Name() }

// Unwrap returns the decorated participant.
func (r *retryParticipant) Unwrap() Participant { return r.inner }

func (r *retryParticipant) Produce(ctx context.Context, history types.View) (types.Message, error) {
	return retry.Do(ctx, r.retryer, func(ctx context.Context) (types.Message, error) {
		return r.inner.Produce(ctx, history)
	})
}

// =============================================================================
// Rate limit
// =============================================================================

type rateLimitedParticipant struct {
	inner   Participant
	limiter *rate.Limiter
}

// WithRateLimit admits at most rps turns per second with the given burst.
func WithRateLimit(p Participant, rps float64, burst int) Participant {
	if p == nil || rps <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedParticipant{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *rateLimitedParticipant) Name() string { return r.inner.Name() }

// Unwrap returns the decorated participant.
func (r *rateLimitedParticipant) Unwrap() Participant { return r.inner }

func (r *rateLimitedParticipant) Produce(ctx context.Context, history types.View) (types.Message, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return types.Message{}, ctx.Err()
		}
		return types.Message{}, types.NewError(types.ErrRateLimited, "rate limit wait failed").
			WithParticipant(r.inner.Name()).
			WithRetryable(true).
			WithCause(err)
	}
	return r.inner.Produce(ctx, history)
}

// Unwrap peels decorators off p until it reaches a participant that does not
// wrap another one.
func Unwrap(p Participant) Participant {
	for {
		u, ok := p.(interface{ Unwrap() Participant })
		if !ok {
			return p
		}
		p = u.Unwrap()
	}
}
