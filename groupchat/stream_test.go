package groupchat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/termination"
	"github.com/BaSui01/roundtable/testutil"
	"github.com/BaSui01/roundtable/testutil/fixtures"
	"github.com/BaSui01/roundtable/testutil/mocks"
	"github.com/BaSui01/roundtable/types"
)

func drain(t *testing.T, ch <-chan groupchat.Event) ([]types.Message, groupchat.Event) {
	t.Helper()
	var msgs []types.Message
	for {
		ev, ok := testutil.WaitForChannel(ch, 5*time.Second)
		require.True(t, ok, "stream closed without a final event")
		if ev.Final() {
			_, open := testutil.WaitForChannel(ch, time.Second)
			assert.False(t, open, "channel closed after the final event")
			return msgs, ev
		}
		msgs = append(msgs, *ev.Message)
	}
}

func TestRunStream_MessagesThenResult(t *testing.T) {
	a := mocks.NewMockParticipant("A").WithReplies("draft")
	b := mocks.NewMockParticipant("B").WithReplies("APPROVE")

	rr, err := groupchat.New(participants(a, b), termination.NewTextMention("APPROVE"))
	require.NoError(t, err)

	msgs, final := drain(t, rr.RunStream(testutil.TestContext(t), "topic"))
	require.NoError(t, final.Err)
	require.NotNil(t, final.Result)

	testutil.AssertSpeakers(t, msgs, "user", "A", "B")
	testutil.AssertMessagesEqual(t, final.Result.Messages, msgs)
	assert.Equal(t, types.StopTerminatedByCondition, final.Result.StopReason)
}

func TestRunStream_BackPressure(t *testing.T) {
	a := mocks.NewMockParticipant("a")
	rr, err := groupchat.New(participants(a), termination.NewMaxTurns(0))
	require.NoError(t, err)

	ch := rr.RunStream(testutil.TestContext(t), fixtures.Task)

	// the seed is waiting on the unbuffered channel, so no turn has started
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, a.Calls())

	seed, ok := testutil.WaitForChannel(ch, time.Second)
	require.True(t, ok)
	require.False(t, seed.Final())
	assert.True(t, seed.Message.IsSeed())

	msgs, final := drain(t, ch)
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, a.Calls())
	assert.NoError(t, final.Err)
}

func TestRunStream_InvariantViolation(t *testing.T) {
	cond := termination.NewMaxTurns(0)
	cond.Evaluate(types.NewMessage("x", "fired already"))

	rr, err := groupchat.New(participants(mocks.NewMockParticipant("a")), cond)
	require.NoError(t, err)

	msgs, final := drain(t, rr.RunStream(testutil.TestContext(t), fixtures.Task))
	assert.Empty(t, msgs)
	assert.Nil(t, final.Result)
	assert.ErrorIs(t, final.Err, groupchat.ErrConditionFired)
}

func TestRunStream_Failure(t *testing.T) {
	rr, err := groupchat.New(participants(mocks.NewMockParticipant("a").WithError(assert.AnError)), nil)
	require.NoError(t, err)

	msgs, final := drain(t, rr.RunStream(testutil.TestContext(t), fixtures.Task))
	require.Len(t, msgs, 1)
	assert.ErrorIs(t, final.Err, assert.AnError)
	require.NotNil(t, final.Result)
	assert.Equal(t, types.StopError, final.Result.StopReason)
}

func TestRunStream_CancelWhileConsumerIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.TestContext(t))
	rr, err := groupchat.New(participants(mocks.NewMockParticipant("a")), nil)
	require.NoError(t, err)

	ch := rr.RunStream(ctx, fixtures.Task)
	cancel()

	// whatever was in flight, the stream ends with a cancelled result
	var final groupchat.Event
	for ev := range ch {
		final = ev
	}
	require.True(t, final.Final())
	require.NoError(t, final.Err)
	assert.Equal(t, types.StopCancelled, final.Result.StopReason)
}
