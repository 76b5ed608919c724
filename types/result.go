package types

import "time"

// StopReason classifies how a run ended.
type StopReason string

const (
	StopTerminatedByCondition StopReason = "terminated_by_condition"
	StopCancelled             StopReason = "cancelled"
	StopError                 StopReason = "error"
)

// RunResult is the outcome of one run. It is built once when the run ends.
type RunResult struct {
	RunID       string     `json:"run_id"`
	Messages    []Message  `json:"messages"`
	StopReason  StopReason `json:"stop_reason"`
	StopMessage string     `json:"stop_message,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`

	Err error `json:"-"`
}

// NewRunResult builds a result from a history snapshot.
func NewRunResult(h *History, reason StopReason, stopMessage string, err error, startedAt time.Time) *RunResult {
	r := &RunResult{
		RunID:       h.RunID(),
		Messages:    h.Snapshot(),
		StopReason:  reason,
		StopMessage: stopMessage,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
		Err:         err,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Turns returns the number of produced messages, seed excluded.
func (r *RunResult) Turns() int {
	if len(r.Messages) == 0 {
		return 0
	}
	if r.Messages[0].IsSeed() {
		return len(r.Messages) - 1
	}
	return len(r.Messages)
}

// Duration returns the wall-clock length of the run.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Last returns the final message of the run, or false when there is none.
func (r *RunResult) Last() (Message, bool) {
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
