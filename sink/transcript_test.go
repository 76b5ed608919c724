package sink_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/internal/database"
	"github.com/BaSui01/roundtable/participant"
	"github.com/BaSui01/roundtable/sink"
	"github.com/BaSui01/roundtable/termination"
	"github.com/BaSui01/roundtable/testutil"
	"github.com/BaSui01/roundtable/testutil/fixtures"
	"github.com/BaSui01/roundtable/types"
)

// =============================================================================
// 🗄️ Transcript
// =============================================================================

func newTestPool(t *testing.T) *database.PoolManager {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		Name:   filepath.Join(t.TempDir(), "transcript.db"),
	}
	db, err := database.Open(cfg, zap.NewNop())
	require.NoError(t, err)

	pm, err := database.NewPoolManager(db, database.PoolConfig{
		Name:         "transcript",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

func newTestTranscript(t *testing.T, logger *zap.Logger) *sink.Transcript {
	t.Helper()
	tr, err := sink.NewTranscript(newTestPool(t), logger)
	require.NoError(t, err)
	require.NoError(t, tr.AutoMigrate(context.Background()))
	return tr
}

func TestNewTranscript_NilPool(t *testing.T) {
	_, err := sink.NewTranscript(nil, nil)
	assert.Error(t, err)
}

func TestTranscript_WriteAndLoad(t *testing.T) {
	tr := newTestTranscript(t, nil)
	ctx := context.Background()
	assert.Equal(t, "transcript", tr.Name())

	want := fixtures.Result("run-1", 3, "writer", "critic")
	for _, msg := range want.Messages {
		require.NoError(t, tr.OnMessage(ctx, msg))
	}
	tr.OnComplete(ctx, want)

	got, err := tr.Load(ctx, "run-1")
	require.NoError(t, err)

	testutil.AssertMessagesEqual(t, want.Messages, got.Messages)
	assert.Equal(t, want.StopReason, got.StopReason)
	assert.Equal(t, want.StopMessage, got.StopMessage)
	assert.Empty(t, got.Error)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.True(t, want.FinishedAt.Equal(got.FinishedAt))
	for i := range want.Messages {
		assert.True(t, want.Messages[i].CreatedAt.Equal(got.Messages[i].CreatedAt), "created_at of message %d", i)
	}

	runs, err := tr.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, fixtures.Task, runs[0].Task)
	assert.Equal(t, "writer,critic", runs[0].Participants)
	assert.Equal(t, 3, runs[0].Turns)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestTranscript_TurnsTrackedBeforeCompletion(t *testing.T) {
	tr := newTestTranscript(t, nil)
	ctx := context.Background()

	for _, msg := range fixtures.Transcript("run-live", 2, "a", "b") {
		require.NoError(t, tr.OnMessage(ctx, msg))
	}

	runs, err := tr.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Turns)
	assert.Nil(t, runs[0].FinishedAt)
	assert.Empty(t, runs[0].StopReason)
}

func TestTranscript_DuplicateMessageFails(t *testing.T) {
	tr := newTestTranscript(t, nil)
	ctx := context.Background()

	msgs := fixtures.Transcript("run-dup", 1, "a")
	require.NoError(t, tr.OnMessage(ctx, msgs[0]))
	require.NoError(t, tr.OnMessage(ctx, msgs[1]))
	assert.Error(t, tr.OnMessage(ctx, msgs[1]))
}

func TestTranscript_LoadUnknown(t *testing.T) {
	tr := newTestTranscript(t, nil)
	_, err := tr.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, sink.ErrRunNotFound)
}

func TestTranscript_CompleteWithoutTablesLogs(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	tr, err := sink.NewTranscript(newTestPool(t), zap.New(core))
	require.NoError(t, err)

	tr.OnComplete(context.Background(), fixtures.Result("r", 1, "a"))

	require.Equal(t, 1, logs.FilterMessage("failed to finalize transcript").Len())
}

func TestTranscript_ArchivesSchedulerRun(t *testing.T) {
	tr := newTestTranscript(t, nil)

	team, err := groupchat.New(
		[]participant.Participant{
			participant.NewScripted("writer", []string{"draft", "final"}),
			participant.NewScripted("critic", []string{"again", "APPROVE"}),
		},
		termination.NewTextMention("APPROVE"),
		groupchat.WithSinks(tr),
	)
	require.NoError(t, err)

	ctx := testutil.TestContext(t)
	res, err := team.Run(ctx, "write")
	require.NoError(t, err)

	got, err := tr.Load(ctx, res.RunID)
	require.NoError(t, err)
	testutil.AssertMessagesEqual(t, res.Messages, got.Messages)
	assert.Equal(t, types.StopTerminatedByCondition, got.StopReason)
	assert.Equal(t, res.StopMessage, got.StopMessage)
}
