package participant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/roundtable/types"
)

// Scripted replies with a fixed sequence of messages.
type Scripted struct {
	name    string
	replies []string
	latency time.Duration
	cycle   bool

	mu    sync.Mutex
	next  int
	calls int
}

// ScriptOption configures a Scripted participant.
type ScriptOption func(*Scripted)

// WithLatency delays every reply by d, or until ctx is done.
func WithLatency(d time.Duration) ScriptOption {
	return func(s *Scripted) {
		s.latency = d
	}
}

// WithCycle restarts the script instead of failing when it runs out.
func WithCycle() ScriptOption {
	return func(s *Scripted) {
		s.cycle = true
	}
}

// NewScripted creates a participant that answers with replies in order.
func NewScripted(name string, replies []string, opts ...ScriptOption) *Scripted {
	s := &Scripted{
		name:    name,
		replies: append([]string(nil), replies...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scripted) Name() string { return s.name }

func (s *Scripted) Produce(ctx context.Context, _ types.View) (types.Message, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return types.Message{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.replies) {
		if !s.cycle || len(s.replies) == 0 {
			return types.Message{}, types.NewError(types.ErrScriptExhausted,
				fmt.Sprintf("script of %d replies exhausted", len(s.replies))).WithParticipant(s.name)
		}
		s.next = 0
	}
	content := s.replies[s.next]
	s.next++
	return types.NewMessage(s.name, content), nil
}

// Calls returns how many times Produce was invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Reset rewinds the script.
func (s *Scripted) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
}
