package termination

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/roundtable/types"
)

func msg(seq int, speaker, content string) types.Message {
	return types.Message{Sequence: seq, Speaker: speaker, Content: content}
}

func TestTextMention(t *testing.T) {
	t.Parallel()

	c := NewTextMention("APPROVE")
	assert.Equal(t, KindTextMention, c.Kind())

	assert.False(t, c.Evaluate(msg(1, "reporter", "a draft")))
	assert.False(t, c.Evaluate(msg(2, "editor", "approve, lowercase does not count")))
	assert.False(t, c.Fired())
	assert.Empty(t, c.Reason())

	assert.True(t, c.Evaluate(msg(3, "editor", "looks good. APPROVE")))
	assert.True(t, c.Fired())
	assert.Contains(t, c.Reason(), "APPROVE")
	assert.Contains(t, c.Reason(), "editor")

	c.Reset()
	assert.False(t, c.Fired())
	assert.Empty(t, c.Reason())
}

func TestTextMention_Sources(t *testing.T) {
	t.Parallel()

	c := NewTextMention("APPROVE", "editor")
	assert.False(t, c.Evaluate(msg(1, "reporter", "I APPROVE of myself")))
	assert.True(t, c.Evaluate(msg(2, "editor", "APPROVE")))
}

func TestTextMention_EmptyMarkerNeverFires(t *testing.T) {
	t.Parallel()

	c := NewTextMention("")
	assert.False(t, c.Evaluate(msg(1, "a", "")))
	assert.False(t, c.Evaluate(msg(2, "a", "anything")))
}

func TestExternal(t *testing.T) {
	t.Parallel()

	c := NewExternal()
	assert.False(t, c.Evaluate(msg(1, "a", "x")))

	c.Set()
	assert.True(t, c.IsSet())
	assert.False(t, c.Fired(), "Set alone does not fire; the next evaluation does")

	assert.True(t, c.Evaluate(msg(2, "b", "y")))
	assert.True(t, c.Fired())

	c.Reset()
	assert.False(t, c.IsSet())
	assert.False(t, c.Fired())
}

func TestExternal_ConcurrentSet(t *testing.T) {
	t.Parallel()

	c := NewExternal()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set()
			_ = c.Fired()
		}()
	}
	wg.Wait()
	assert.True(t, c.Evaluate(msg(1, "a", "x")))
}

func TestMaxTurns_Boundary(t *testing.T) {
	t.Parallel()

	c := NewMaxTurns(3)
	for i := 1; i <= 3; i++ {
		require.False(t, c.Evaluate(msg(i, "a", "x")), "turn %d must not fire", i)
	}
	assert.True(t, c.Evaluate(msg(4, "a", "x")))
	assert.Equal(t, 4, c.Count())

	c.Reset()
	assert.Equal(t, 0, c.Count())
	assert.False(t, c.Fired())
}

func TestMaxTurns_ZeroAndNegative(t *testing.T) {
	t.Parallel()

	assert.True(t, NewMaxTurns(0).Evaluate(msg(1, "a", "x")))
	assert.True(t, NewMaxTurns(-5).Evaluate(msg(1, "a", "x")))
}

func TestSourceMatch(t *testing.T) {
	t.Parallel()

	c := NewSourceMatch("editor", "chief")
	assert.False(t, c.Evaluate(msg(1, "reporter", "x")))
	assert.True(t, c.Evaluate(msg(2, "chief", "x")))
	assert.Contains(t, c.Reason(), "chief")
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTimeout(time.Minute)
	c.now = func() time.Time { return now }
	c.Reset()

	now = now.Add(30 * time.Second)
	assert.False(t, c.Evaluate(msg(1, "a", "x")))

	now = now.Add(31 * time.Second)
	assert.True(t, c.Evaluate(msg(2, "a", "x")))
	assert.Contains(t, c.Reason(), "1m0s")

	c.Reset()
	assert.False(t, c.Evaluate(msg(3, "a", "x")))
}

func TestFunc(t *testing.T) {
	t.Parallel()

	c := NewFunc("long-reply", func(m types.Message) bool { return len(m.Content) > 5 })
	assert.False(t, c.Evaluate(msg(1, "a", "short")))
	assert.True(t, c.Evaluate(msg(2, "a", "much longer")))
	assert.Contains(t, c.Reason(), "long-reply")

	assert.False(t, NewFunc("nil", nil).Evaluate(msg(1, "a", "x")))
}

func TestOr_EvaluatesEveryChild(t *testing.T) {
	t.Parallel()

	mention := NewTextMention("APPROVE")
	turns := NewMaxTurns(5)
	c := NewOr(mention, turns)

	assert.False(t, c.Evaluate(msg(1, "a", "x")))
	assert.False(t, c.Evaluate(msg(2, "b", "y")))
	assert.Equal(t, 2, turns.Count())

	assert.True(t, c.Evaluate(msg(3, "b", "APPROVE")))
	assert.Equal(t, 3, turns.Count(), "every child sees every message exactly once")
	assert.Equal(t, mention.Reason(), c.Reason())
}

func TestAnd_StickyChildren(t *testing.T) {
	t.Parallel()

	mention := NewTextMention("APPROVE")
	turns := NewMaxTurns(2)
	c := NewAnd(mention, turns)

	assert.False(t, c.Evaluate(msg(1, "a", "APPROVE")))
	assert.True(t, mention.Fired())
	assert.False(t, c.Fired())

	assert.False(t, c.Evaluate(msg(2, "a", "x")))
	assert.True(t, c.Evaluate(msg(3, "a", "x")))
	assert.Contains(t, c.Reason(), "APPROVE")
	assert.Contains(t, c.Reason(), "maximum of 2 turns")

	c.Reset()
	assert.False(t, mention.Fired())
	assert.False(t, turns.Fired())
	assert.Equal(t, 0, turns.Count())
}

func TestComposite_SkipsNilChildren(t *testing.T) {
	t.Parallel()

	turns := NewMaxTurns(1)
	or := NewOr(nil, turns)
	and := NewAnd(NewSourceMatch("b"), nil, nil)

	require.Len(t, or.Children(), 1)
	require.Len(t, and.Children(), 1)

	assert.NotPanics(t, func() {
		assert.False(t, or.Evaluate(msg(1, "a", "x")))
		assert.True(t, or.Evaluate(msg(2, "b", "y")))
		assert.True(t, and.Evaluate(msg(2, "b", "y")))
		or.Reset()
		and.Reset()
	})
	assert.False(t, or.Fired())
	assert.False(t, and.Fired())
	assert.Equal(t, "Or(MaxTurns(1))", Describe(or))
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	c := NewOr(
		NewTextMention("APPROVE"),
		NewAnd(NewMaxTurns(10), NewSourceMatch("b", "a")),
		NewExternal(),
		NewTimeout(time.Second),
		NewFunc("custom", nil),
	)
	assert.Equal(t,
		`Or(TextMention("APPROVE"), And(MaxTurns(10), SourceMatch(a,b)), External, Timeout(1s), Func(custom))`,
		Describe(c))
	assert.Equal(t, `TextMention("X", sources=e)`, Describe(NewTextMention("X", "e")))
	assert.Equal(t, "None", Describe(nil))
	assert.Len(t, c.Children(), 5)
}
