package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/roundtable/internal/database"
	"github.com/BaSui01/roundtable/types"
)

// ErrRunNotFound is returned by Load for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// =============================================================================
// 🗄️ Models
// =============================================================================

// TranscriptRun is one row of roundtable_runs.
type TranscriptRun struct {
	ID           string              `gorm:"column:id;primaryKey;size:36"`
	Task         string              `gorm:"column:task;type:text"`
	Participants string              `gorm:"column:participants;type:text"`
	StopReason   string              `gorm:"column:stop_reason;size:32;index"`
	StopMessage  string              `gorm:"column:stop_message;type:text"`
	ErrorMessage string              `gorm:"column:error_message;type:text"`
	Turns        int                 `gorm:"column:turns"`
	StartedAt    time.Time           `gorm:"column:started_at;index"`
	FinishedAt   *time.Time          `gorm:"column:finished_at"`
	Messages     []TranscriptMessage `gorm:"foreignKey:RunID;references:ID;constraint:OnDelete:CASCADE"`
}

func (TranscriptRun) TableName() string { return "roundtable_runs" }

// TranscriptMessage is one row of roundtable_messages.
type TranscriptMessage struct {
	RunID     string    `gorm:"column:run_id;primaryKey;size:36"`
	Sequence  int       `gorm:"column:seq;primaryKey;autoIncrement:false"`
	Speaker   string    `gorm:"column:speaker;size:128"`
	Content   string    `gorm:"column:content;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (TranscriptMessage) TableName() string { return "roundtable_messages" }

// =============================================================================
// 📜 Transcript sink
// =============================================================================

// Transcript archives every run in SQL. The seed message creates the run row;
// OnComplete fills in the outcome. It is a write-ahead log of conversations,
// not resume state.
type Transcript struct {
	pool    *database.PoolManager
	retries int
	logger  *zap.Logger
}

// TranscriptOption configures a Transcript.
type TranscriptOption func(*Transcript)

// WithTxRetries sets how many times a write is attempted on transient errors
// (deadlocks, sqlite busy). Default 3.
func WithTxRetries(n int) TranscriptOption {
	return func(t *Transcript) {
		if n > 0 {
			t.retries = n
		}
	}
}

// NewTranscript creates a Transcript writing through pool.
func NewTranscript(pool *database.PoolManager, logger *zap.Logger, opts ...TranscriptOption) (*Transcript, error) {
	if pool == nil {
		return nil, fmt.Errorf("transcript: pool is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Transcript{
		pool:    pool,
		retries: 3,
		logger:  logger.With(zap.String("component", "transcript")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// AutoMigrate creates the tables with GORM. Production databases use the
// versioned migrations instead.
func (t *Transcript) AutoMigrate(ctx context.Context) error {
	return t.pool.DB().WithContext(ctx).AutoMigrate(&TranscriptRun{}, &TranscriptMessage{})
}

func (t *Transcript) Name() string { return "transcript" }

func (t *Transcript) OnMessage(ctx context.Context, msg types.Message) error {
	row := TranscriptMessage{
		RunID:     msg.RunID,
		Sequence:  msg.Sequence,
		Speaker:   msg.Speaker,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}

	err := t.pool.WithTransactionRetry(ctx, t.retries, func(tx *gorm.DB) error {
		if msg.IsSeed() {
			run := TranscriptRun{
				ID:        msg.RunID,
				Task:      msg.Content,
				StartedAt: msg.CreatedAt,
			}
			if err := tx.Create(&run).Error; err != nil {
				return fmt.Errorf("create run: %w", err)
			}
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert message %d: %w", msg.Sequence, err)
		}
		if !msg.IsSeed() {
			return tx.Model(&TranscriptRun{}).
				Where("id = ?", msg.RunID).
				Update("turns", gorm.Expr("turns + ?", 1)).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	return nil
}

func (t *Transcript) OnComplete(ctx context.Context, result *types.RunResult) {
	if result == nil {
		return
	}
	finished := result.FinishedAt
	updates := map[string]any{
		"participants":  strings.Join(speakersOf(result.Messages), ","),
		"stop_reason":   string(result.StopReason),
		"stop_message":  result.StopMessage,
		"error_message": result.Error,
		"turns":         result.Turns(),
		"finished_at":   &finished,
	}

	err := t.pool.WithTransactionRetry(ctx, t.retries, func(tx *gorm.DB) error {
		return tx.Model(&TranscriptRun{}).Where("id = ?", result.RunID).Updates(updates).Error
	})
	if err != nil {
		t.logger.Error("failed to finalize transcript",
			zap.String("run_id", result.RunID),
			zap.Error(err),
		)
	}
}

// Load rebuilds the result of an archived run.
func (t *Transcript) Load(ctx context.Context, runID string) (*types.RunResult, error) {
	var run TranscriptRun
	err := t.pool.DB().WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	res := &types.RunResult{
		RunID:       run.ID,
		Messages:    make([]types.Message, len(run.Messages)),
		StopReason:  types.StopReason(run.StopReason),
		StopMessage: run.StopMessage,
		Error:       run.ErrorMessage,
		StartedAt:   run.StartedAt,
	}
	if run.FinishedAt != nil {
		res.FinishedAt = *run.FinishedAt
	}
	for i, m := range run.Messages {
		res.Messages[i] = types.Message{
			RunID:     m.RunID,
			Sequence:  m.Sequence,
			Speaker:   m.Speaker,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return res, nil
}

// Runs lists the most recent runs without their messages.
func (t *Transcript) Runs(ctx context.Context, limit int) ([]TranscriptRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []TranscriptRun
	err := t.pool.DB().WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// speakersOf returns the distinct non-seed speakers in order of first
// appearance.
func speakersOf(msgs []types.Message) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range msgs {
		if m.IsSeed() {
			continue
		}
		if _, ok := seen[m.Speaker]; ok {
			continue
		}
		seen[m.Speaker] = struct{}{}
		out = append(out, m.Speaker)
	}
	return out
}
