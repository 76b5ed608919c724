package participant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/internal/ctxkeys"
	"github.com/BaSui01/roundtable/types"
)

// Role is the role of a prompt message sent to a chat model.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a chat-model prompt.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// ChatModel completes a prompt. Implementations wrap a concrete model backend
// and own authentication, retries and model selection.
type ChatModel interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// ChatModelFunc adapts a function to ChatModel.
type ChatModelFunc func(ctx context.Context, messages []ChatMessage) (string, error)

// Complete implements ChatModel.
func (f ChatModelFunc) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return f(ctx, messages)
}

// Assistant is a participant backed by a chat model. Its own past messages are
// sent with the assistant role and everyone else's with the user role, tagged
// with the speaker's name.
type Assistant struct {
	name         string
	systemPrompt string
	model        ChatModel
	bufferSize   int
	maxTokens    int
	counter      TokenCounter
	logger       *zap.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) AssistantOption {
	return func(a *Assistant) {
		a.systemPrompt = prompt
	}
}

// WithBufferSize keeps only the last n history messages in the prompt.
func WithBufferSize(n int) AssistantOption {
	return func(a *Assistant) {
		a.bufferSize = n
	}
}

// WithTokenBudget drops the oldest history messages until the prompt fits in
// maxTokens as measured by counter. The newest message is always kept.
func WithTokenBudget(maxTokens int, counter TokenCounter) AssistantOption {
	return func(a *Assistant) {
		a.maxTokens = maxTokens
		a.counter = counter
	}
}

// WithAssistantLogger sets the logger.
func WithAssistantLogger(logger *zap.Logger) AssistantOption {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssistant creates a model-backed participant.
func NewAssistant(name string, model ChatModel, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		name:   name,
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("component", "assistant"), zap.String("participant", name))
	return a
}

func (a *Assistant) Name() string { return a.name }

// SystemPrompt returns the configured system prompt.
func (a *Assistant) SystemPrompt() string { return a.systemPrompt }

func (a *Assistant) Produce(ctx context.Context, history types.View) (types.Message, error) {
	if a.model == nil {
		return types.Message{}, ErrNilModel
	}

	prompt, err := a.Prompt(history)
	if err != nil {
		return types.Message{}, err
	}

	content, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return types.Message{}, fmt.Errorf("complete: %w", err)
	}

	fields := []zap.Field{
		zap.Int("prompt_messages", len(prompt)),
		zap.Int("reply_len", len(content)),
	}
	if runID, ok := ctxkeys.RunID(ctx); ok {
		fields = append(fields, zap.String("run_id", runID))
	}
	if _, seq, ok := ctxkeys.Turn(ctx); ok {
		fields = append(fields, zap.Int("sequence", seq))
	}
	a.logger.Debug("model replied", fields...)
	return types.NewMessage(a.name, content), nil
}

// Prompt builds the model prompt for history.
func (a *Assistant) Prompt(history types.View) ([]ChatMessage, error) {
	window := history
	if a.bufferSize > 0 {
		window = history.Tail(a.bufferSize)
	}

	msgs := make([]ChatMessage, 0, window.Len()+1)
	for i := 0; i < window.Len(); i++ {
		m := window.At(i)
		role := RoleUser
		if m.Speaker == a.name {
			role = RoleAssistant
		}
		msgs = append(msgs, ChatMessage{Role: role, Name: m.Speaker, Content: m.Content})
	}

	if a.maxTokens > 0 && a.counter != nil {
		var err error
		msgs, err = a.fit(msgs)
		if err != nil {
			return nil, err
		}
	}

	if a.systemPrompt != "" {
		msgs = append([]ChatMessage{{Role: RoleSystem, Content: a.systemPrompt}}, msgs...)
	}
	return msgs, nil
}

// fit drops messages from the front until the total, system prompt included,
// is within budget.
func (a *Assistant) fit(msgs []ChatMessage) ([]ChatMessage, error) {
	budget := a.maxTokens
	if a.systemPrompt != "" {
		n, err := a.counter.CountTokens(a.systemPrompt)
		if err != nil {
			return nil, fmt.Errorf("count system prompt tokens: %w", err)
		}
		budget -= n
	}

	counts := make([]int, len(msgs))
	total := 0
	for i, m := range msgs {
		n, err := a.counter.CountTokens(m.Content)
		if err != nil {
			return nil, fmt.Errorf("count message tokens: %w", err)
		}
		counts[i] = n
		total += n
	}

	start := 0
	for total > budget && start < len(msgs)-1 {
		total -= counts[start]
		start++
	}
	if start > 0 {
		a.logger.Debug("trimmed prompt to token budget",
			zap.Int("dropped", start),
			zap.Int("tokens", total),
			zap.Int("budget", a.maxTokens),
		)
	}
	return msgs[start:], nil
}
