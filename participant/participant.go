package participant

import (
	"context"
	"errors"

	"github.com/BaSui01/roundtable/types"
)

var (
	// ErrNilParticipant is returned when a decorator wraps nothing.
	ErrNilParticipant = errors.New("participant is nil")

	// ErrNilModel is returned by an Assistant without a ChatModel.
	ErrNilModel = errors.New("chat model not set")
)

// Participant produces the next message of a conversation.
//
// Produce must not retain or modify history beyond the call, and the returned
// message's Speaker must equal Name. It may block for as long as the external
// computation takes; implementations should honour ctx where they can.
type Participant interface {
	Name() string
	Produce(ctx context.Context, history types.View) (types.Message, error)
}

// Resetter is implemented by participants holding per-run state.
type Resetter interface {
	Reset()
}

// Func adapts a function returning reply content.
type Func struct {
	name string
	fn   func(ctx context.Context, history types.View) (string, error)
}

// NewFunc creates a participant backed by fn.
func NewFunc(name string, fn func(ctx context.Context, history types.View) (string, error)) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Produce(ctx context.Context, history types.View) (types.Message, error) {
	content, err := f.fn(ctx, history)
	if err != nil {
		return types.Message{}, err
	}
	return types.NewMessage(f.name, content), nil
}

// Echo returns a participant that repeats the last message it saw, prefixed
// with its own name. Handy for smoke tests and demos.
func Echo(name string) *Func {
	return NewFunc(name, func(_ context.Context, history types.View) (string, error) {
		last, ok := history.Last()
		if !ok {
			return "", nil
		}
		return name + ": " + last.Content, nil
	})
}
