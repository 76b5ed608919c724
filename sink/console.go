package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"

	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/types"
)

// Console renders messages as speaker blocks:
//
//	---------- alice ----------
//	Leaves drift down in amber light.
type Console struct {
	out     io.Writer
	colored bool
	mu      sync.Mutex
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithColor toggles ANSI colouring of the speaker headers.
func WithColor(enabled bool) ConsoleOption {
	return func(c *Console) {
		c.colored = enabled
	}
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	if w == nil {
		w = os.Stdout
	}
	c := &Console{out: w}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements groupchat.Sink naming.
func (c *Console) Name() string { return "console" }

func (c *Console) header(title string, style color.Style) string {
	line := fmt.Sprintf("---------- %s ----------", title)
	if c.colored {
		return style.Render(line)
	}
	return line
}

// OnMessage prints one speaker block.
func (c *Console) OnMessage(_ context.Context, msg types.Message) error {
	style := color.New(color.FgGreen, color.OpBold)
	if msg.Speaker == types.UserSpeaker {
		style = color.New(color.FgCyan, color.OpBold)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.out, "%s\n%s\n", c.header(msg.Speaker, style), strings.TrimRight(msg.Content, "\n"))
	return err
}

// OnComplete prints the run summary.
func (c *Console) OnComplete(_ context.Context, result *types.RunResult) {
	if result == nil {
		return
	}
	style := color.New(color.FgYellow, color.OpBold)
	if result.StopReason == types.StopError {
		style = color.New(color.FgRed, color.OpBold)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, c.header("summary", style))
	fmt.Fprintf(c.out, "run:         %s\n", result.RunID)
	fmt.Fprintf(c.out, "stop reason: %s\n", result.StopReason)
	if result.StopMessage != "" {
		fmt.Fprintf(c.out, "stop detail: %s\n", result.StopMessage)
	}
	fmt.Fprintf(c.out, "messages:    %d (%d turns)\n", len(result.Messages), result.Turns())
	fmt.Fprintf(c.out, "duration:    %s\n", result.Duration().Round(time.Millisecond))
	if result.Error != "" {
		fmt.Fprintf(c.out, "error:       %s\n", result.Error)
	}
}

// ConsumeStream drains a RunStream channel through sinks and returns the final
// result. It always reads until the channel closes. Sink errors do not stop the
// run (the scheduler has already moved on); they are joined into the returned
// error.
func ConsumeStream(ctx context.Context, events <-chan groupchat.Event, sinks ...groupchat.Sink) (*types.RunResult, error) {
	var sinkErrs []error
	var final groupchat.Event

	for ev := range events {
		if ev.Final() {
			final = ev
			continue
		}
		for _, s := range sinks {
			if err := s.OnMessage(ctx, *ev.Message); err != nil {
				sinkErrs = append(sinkErrs, fmt.Errorf("sink %s: %w", groupchat.SinkName(s), err))
			}
		}
	}

	if final.Result != nil {
		cctx := context.WithoutCancel(ctx)
		for _, s := range sinks {
			s.OnComplete(cctx, final.Result)
		}
	}
	return final.Result, errors.Join(append([]error{final.Err}, sinkErrs...)...)
}
