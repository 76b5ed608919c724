package groupchat

import (
	"context"
	"fmt"

	"github.com/BaSui01/roundtable/types"
)

// Sink consumes the message stream of a run.
//
// OnMessage is called synchronously, in sequence order, once per message
// (seed included) before the next turn starts; a slow sink delays the run.
// Returning an error stops the run. OnComplete is called exactly once per
// started run, whatever the stop reason; its context is never cancelled.
type Sink interface {
	OnMessage(ctx context.Context, msg types.Message) error
	OnComplete(ctx context.Context, result *types.RunResult)
}

// SinkFuncs adapts plain functions. Nil fields are skipped.
type SinkFuncs struct {
	Message  func(ctx context.Context, msg types.Message) error
	Complete func(ctx context.Context, result *types.RunResult)
}

func (f SinkFuncs) OnMessage(ctx context.Context, msg types.Message) error {
	if f.Message == nil {
		return nil
	}
	return f.Message(ctx, msg)
}

func (f SinkFuncs) OnComplete(ctx context.Context, result *types.RunResult) {
	if f.Complete != nil {
		f.Complete(ctx, result)
	}
}

// SinkName returns the label used for a sink in logs and metrics.
func SinkName(s Sink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
