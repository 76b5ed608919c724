package quick

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/sink"
	"github.com/BaSui01/roundtable/termination"
	"github.com/BaSui01/roundtable/testutil"
	"github.com/BaSui01/roundtable/testutil/fixtures"
	"github.com/BaSui01/roundtable/types"
)

func poemChat() config.ChatConfig {
	writer, critic := fixtures.PoemScript()
	cfg := config.DefaultChatConfig()
	cfg.Task = fixtures.Task
	cfg.Participants = []config.ParticipantConfig{
		{Name: "writer", Replies: writer},
		{Name: "critic", Kind: config.KindScripted, Replies: critic},
	}
	return cfg
}

// =============================================================================
// 🏗️ Team construction
// =============================================================================

func TestNew_PoemScenario(t *testing.T) {
	rec := sink.NewRecorder()
	team, err := New(poemChat(), WithSinks(rec), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	assert.Equal(t, []string{"writer", "critic"}, team.Participants())
	assert.Equal(t, `Or(External, TextMention("APPROVE"))`, termination.Describe(team.Condition()))

	res, err := team.Run(testutil.TestContext(t), fixtures.Task)
	require.NoError(t, err)
	assert.Equal(t, types.StopTerminatedByCondition, res.StopReason)
	assert.Equal(t, 4, res.Turns())
	assert.Len(t, rec.Messages(), 5)
}

func TestNew_StopSwitch(t *testing.T) {
	cfg := config.ChatConfig{
		Participants: []config.ParticipantConfig{{Name: "echo", Kind: config.KindEcho}},
	}
	var team *Team
	stopAt := groupchat.SinkFuncs{Message: func(_ context.Context, msg types.Message) error {
		if msg.Sequence == 3 {
			team.Stop.Set()
		}
		return nil
	}}
	team, err := New(cfg, WithSinks(stopAt))
	require.NoError(t, err)

	res, err := team.Run(testutil.TestContext(t), "ping")
	require.NoError(t, err)
	assert.Equal(t, types.StopTerminatedByCondition, res.StopReason)
	assert.Equal(t, 3, res.Turns())
	assert.Equal(t, "external termination requested", res.StopMessage)
}

func TestNew_InvalidParticipants(t *testing.T) {
	_, err := New(config.ChatConfig{Termination: config.DefaultTerminationConfig()})
	assert.True(t, types.IsInvariantViolation(err))

	_, err = New(config.ChatConfig{Participants: []config.ParticipantConfig{{Name: "x", Kind: "llm"}}})
	assert.ErrorContains(t, err, `unknown kind "llm"`)
}

func TestParticipants_Decorators(t *testing.T) {
	ps, err := Participants([]config.ParticipantConfig{
		{Name: "slow", Replies: []string{"late"}, Latency: time.Second, Timeout: 10 * time.Millisecond},
		{Name: "looper", Replies: []string{"a", "b"}, Cycle: true, MaxRetries: 2, RateLimitRPS: 100},
	}, nil)
	require.NoError(t, err)
	require.Len(t, ps, 2)

	ctx := testutil.TestContext(t)
	view := types.NewView(fixtures.Transcript("r", 0))

	_, err = ps[0].Produce(ctx, view)
	assert.Equal(t, types.ErrParticipantTimeout, types.GetErrorCode(err))

	var contents []string
	for range 3 {
		msg, err := ps[1].Produce(ctx, view)
		require.NoError(t, err)
		contents = append(contents, msg.Content)
	}
	assert.Equal(t, []string{"a", "b", "a"}, contents)
	assert.Equal(t, "looper", ps[1].Name())
}

func TestTermination(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TerminationConfig
		want string
	}{
		{"none", config.TerminationConfig{}, "External"},
		{"max turns zero disables", config.TerminationConfig{MaxTurns: 0}, "External"},
		{"max turns one", config.TerminationConfig{MaxTurns: 1}, "Or(External, MaxTurns(1))"},
		{"all", config.TerminationConfig{
			TextMention:        "DONE",
			TextMentionSources: []string{"critic"},
			MaxTurns:           10,
			Sources:            []string{"judge"},
			Timeout:            time.Minute,
		}, `Or(External, TextMention("DONE", sources=critic), MaxTurns(10), SourceMatch(judge), Timeout(1m0s))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, stop := Termination(tt.cfg)
			require.NotNil(t, stop)
			assert.Equal(t, tt.want, termination.Describe(cond))
		})
	}
}

// =============================================================================
// 🔌 Infrastructure
// =============================================================================

func TestSinks_DatabaseAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.DefaultConfig()
	cfg.Chat = poemChat()
	cfg.Database.Enabled = true
	cfg.Database.Driver = "sqlite"
	cfg.Database.Name = filepath.Join(t.TempDir(), "rt.db")
	cfg.Database.MaxOpenConns = 1
	cfg.Database.MaxIdleConns = 1
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	ctx := testutil.TestContext(t)
	rec := sink.NewRecorder()
	fan, closers, err := Sinks(ctx, cfg, zap.NewNop(), nil, rec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closers.Close() })

	assert.Equal(t, "fanout(recorder,transcript,redis)", fan.Name())
	assert.Len(t, closers, 2)

	team, err := New(cfg.Chat, WithSinks(fan))
	require.NoError(t, err)
	res, err := team.Run(ctx, cfg.Chat.Task)
	require.NoError(t, err)

	testutil.AssertMessagesEqual(t, res.Messages, rec.Messages())
	assert.True(t, mr.Exists("roundtable:run:"+res.RunID))
	assert.Equal(t, 24*time.Hour, mr.TTL("roundtable:run:"+res.RunID))
}

func TestSinks_NothingEnabled(t *testing.T) {
	fan, closers, err := Sinks(context.Background(), config.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, fan.Len())
	assert.Empty(t, closers)
	assert.NoError(t, closers.Close())
}

func TestSinks_RedisUnreachable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	_, _, err := Sinks(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "redis sink")
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func TestClosers_ReverseOrderAndJoin(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	c := Closers{
		closeFunc(func() error { order = append(order, 1); return nil }),
		closeFunc(func() error { order = append(order, 2); return boom }),
	}
	err := c.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2, 1}, order)
}
