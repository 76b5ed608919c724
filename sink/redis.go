package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/internal/streamstore"
	"github.com/BaSui01/roundtable/types"
)

const (
	entryKindMessage  = "message"
	entryKindComplete = "complete"
)

// RedisStream publishes each run to a Redis stream keyed by run ID, so other
// processes can follow a conversation live with XREAD.
type RedisStream struct {
	store  *streamstore.Manager
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStream publishes through store. A positive ttl expires the stream
// that long after the run completes.
func NewRedisStream(store *streamstore.Manager, ttl time.Duration, logger *zap.Logger) (*RedisStream, error) {
	if store == nil {
		return nil, fmt.Errorf("redis stream: store is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStream{
		store:  store,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "redis_stream")),
	}, nil
}

func (r *RedisStream) Name() string { return "redis" }

func (r *RedisStream) OnMessage(ctx context.Context, msg types.Message) error {
	_, err := r.store.Append(ctx, msg.RunID, map[string]any{
		"kind":       entryKindMessage,
		"run_id":     msg.RunID,
		"seq":        msg.Sequence,
		"speaker":    msg.Speaker,
		"content":    msg.Content,
		"created_at": msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	return err
}

func (r *RedisStream) OnComplete(ctx context.Context, result *types.RunResult) {
	if result == nil {
		return
	}
	_, err := r.store.Append(ctx, result.RunID, map[string]any{
		"kind":         entryKindComplete,
		"run_id":       result.RunID,
		"stop_reason":  string(result.StopReason),
		"stop_message": result.StopMessage,
		"error":        result.Error,
		"turns":        result.Turns(),
	})
	if err != nil {
		r.logger.Error("failed to publish run completion", zap.String("run_id", result.RunID), zap.Error(err))
		return
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, result.RunID, r.ttl); err != nil {
			r.logger.Warn("failed to set stream ttl", zap.String("run_id", result.RunID), zap.Error(err))
		}
	}
}

// Read replays a published run. Runs still in progress come back with an
// empty StopReason.
func (r *RedisStream) Read(ctx context.Context, runID string) (*types.RunResult, error) {
	entries, err := r.store.Range(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	res := &types.RunResult{RunID: runID}
	for _, e := range entries {
		switch field(e, "kind") {
		case entryKindMessage:
			msg, err := decodeMessage(e)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.ID, err)
			}
			if msg.IsSeed() {
				res.StartedAt = msg.CreatedAt
			}
			res.Messages = append(res.Messages, msg)
		case entryKindComplete:
			res.StopReason = types.StopReason(field(e, "stop_reason"))
			res.StopMessage = field(e, "stop_message")
			res.Error = field(e, "error")
			if n := len(res.Messages); n > 0 {
				res.FinishedAt = res.Messages[n-1].CreatedAt
			}
		}
	}
	return res, nil
}

func decodeMessage(e redis.XMessage) (types.Message, error) {
	seq, err := strconv.Atoi(field(e, "seq"))
	if err != nil {
		return types.Message{}, fmt.Errorf("bad seq: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, field(e, "created_at"))
	if err != nil {
		return types.Message{}, fmt.Errorf("bad created_at: %w", err)
	}
	return types.Message{
		RunID:     field(e, "run_id"),
		Sequence:  seq,
		Speaker:   field(e, "speaker"),
		Content:   field(e, "content"),
		CreatedAt: created,
	}, nil
}

func field(e redis.XMessage, key string) string {
	switch v := e.Values[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
