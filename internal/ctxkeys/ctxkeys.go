package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	runIDKey    contextKey = "run_id"
	speakerKey  contextKey = "speaker"
	sequenceKey contextKey = "sequence"
)

// WithRunID 设置 RunID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取 RunID
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithTurn 设置当前发言者及其消息序号
func WithTurn(ctx context.Context, speaker string, sequence int) context.Context {
	ctx = context.WithValue(ctx, speakerKey, speaker)
	return context.WithValue(ctx, sequenceKey, sequence)
}

// Turn 获取当前发言者及其消息序号
func Turn(ctx context.Context) (speaker string, sequence int, ok bool) {
	speaker, ok = ctx.Value(speakerKey).(string)
	if !ok || speaker == "" {
		return "", 0, false
	}
	sequence, ok = ctx.Value(sequenceKey).(int)
	if !ok {
		return "", 0, false
	}
	return speaker, sequence, true
}
