package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunID(t *testing.T) {
	_, ok := RunID(context.Background())
	assert.False(t, ok)

	_, ok = RunID(WithRunID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := RunID(WithRunID(context.Background(), "run-1"))
	assert.True(t, ok)
	assert.Equal(t, "run-1", id)
}

func TestTurn(t *testing.T) {
	_, _, ok := Turn(context.Background())
	assert.False(t, ok)

	ctx := WithTurn(WithRunID(context.Background(), "run-1"), "alice", 3)
	speaker, seq, ok := Turn(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", speaker)
	assert.Equal(t, 3, seq)

	id, _ := RunID(ctx)
	assert.Equal(t, "run-1", id)
}
