package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/types"
)

// Fanout delivers each message to several sinks concurrently and returns once
// all of them are done, so per-sink ordering is preserved. The first error is
// returned and cancels the context of the remaining deliveries.
type Fanout struct {
	sinks []groupchat.Sink
}

// NewFanout groups sinks. Nil sinks are skipped.
func NewFanout(sinks ...groupchat.Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Name lists the grouped sinks, e.g. fanout(console,redis).
func (f *Fanout) Name() string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = groupchat.SinkName(s)
	}
	return "fanout(" + strings.Join(names, ",") + ")"
}

// Len returns the number of grouped sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) OnMessage(ctx context.Context, msg types.Message) error {
	if len(f.sinks) == 1 {
		return f.sinks[0].OnMessage(ctx, msg)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range f.sinks {
		g.Go(func() error {
			if err := s.OnMessage(gctx, msg); err != nil {
				return fmt.Errorf("%s: %w", groupchat.SinkName(s), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (f *Fanout) OnComplete(ctx context.Context, result *types.RunResult) {
	var wg sync.WaitGroup
	for _, s := range f.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.OnComplete(ctx, result)
		}()
	}
	wg.Wait()
}
