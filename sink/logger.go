package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/types"
)

// Logger writes every message through zap.
type Logger struct {
	logger     *zap.Logger
	maxContent int
}

// LoggerOption configures a Logger sink.
type LoggerOption func(*Logger)

// WithMaxContent truncates logged content to n bytes. 0 keeps it whole.
func WithMaxContent(n int) LoggerOption {
	return func(l *Logger) {
		l.maxContent = n
	}
}

// NewLogger creates a Logger sink. A nil logger discards everything.
func NewLogger(logger *zap.Logger, opts ...LoggerOption) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Logger{logger: logger.With(zap.String("component", "transcript_log"))}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) Name() string { return "logger" }

func (l *Logger) OnMessage(_ context.Context, msg types.Message) error {
	content := msg.Content
	if l.maxContent > 0 && len(content) > l.maxContent {
		content = content[:l.maxContent] + "..."
	}
	l.logger.Info("message",
		zap.String("run_id", msg.RunID),
		zap.Int("sequence", msg.Sequence),
		zap.String("speaker", msg.Speaker),
		zap.String("content", content),
	)
	return nil
}

func (l *Logger) OnComplete(_ context.Context, result *types.RunResult) {
	if result == nil {
		return
	}
	fields := []zap.Field{
		zap.String("run_id", result.RunID),
		zap.String("stop_reason", string(result.StopReason)),
		zap.String("stop_message", result.StopMessage),
		zap.Int("turns", result.Turns()),
		zap.Duration("duration", result.Duration()),
	}
	if result.Error != "" {
		fields = append(fields, zap.String("error", result.Error))
	}
	l.logger.Info("run complete", fields...)
}
