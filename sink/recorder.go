package sink

import (
	"context"
	"sync"

	"github.com/BaSui01/roundtable/types"
)

// Recorder keeps every delivered message and result in memory.
type Recorder struct {
	mu       sync.RWMutex
	messages []types.Message
	results  []*types.RunResult
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) OnMessage(_ context.Context, msg types.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) OnComplete(_ context.Context, result *types.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Messages returns a copy of the recorded messages across all runs.
func (r *Recorder) Messages() []types.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.Message(nil), r.messages...)
}

// Results returns the recorded run results in completion order.
func (r *Recorder) Results() []*types.RunResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*types.RunResult(nil), r.results...)
}

// Last returns the most recent result, or nil.
func (r *Recorder) Last() *types.RunResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.results) == 0 {
		return nil
	}
	return r.results[len(r.results)-1]
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.results = nil
}
