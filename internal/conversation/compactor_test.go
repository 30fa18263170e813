package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npc-chatlab/backend/pkg/logger"
)

type fakeSummarizer struct {
	calls   [][]Turn
	text    string
	err     error
	blockFn func(ctx context.Context) error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, turns []Turn) (string, error) {
	f.calls = append(f.calls, turns)
	if f.blockFn != nil {
		if err := f.blockFn(ctx); err != nil {
			return "", err
		}
	}
	return f.text, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: true})
}

func TestMaybeCompactNoOldMessages(t *testing.T) {
	sum := &fakeSummarizer{text: "digest"}
	c := NewCompactor(sum, time.Second, nil, testLogger())

	state, changed := c.MaybeCompact(context.Background(), SummaryState{}, nil)

	assert.False(t, changed)
	assert.True(t, state.Empty())
	assert.Empty(t, sum.calls)
}

func TestMaybeCompactFirstCompaction(t *testing.T) {
	sum := &fakeSummarizer{text: "the story so far"}
	c := NewCompactor(sum, time.Second, nil, testLogger())

	old := makeHistory(3)
	state, changed := c.MaybeCompact(context.Background(), SummaryState{}, old)

	assert.True(t, changed)
	assert.Equal(t, "the story so far", state.Summary)
	assert.Equal(t, 3, state.CompactedOld)
	require.Len(t, sum.calls, 1)
	assert.Equal(t, old, sum.calls[0])
}

func TestMaybeCompactBelowThresholdIsNoOp(t *testing.T) {
	sum := &fakeSummarizer{text: "should not be used"}
	c := NewCompactor(sum, time.Second, nil, testLogger())

	prior := SummaryState{Summary: "earlier digest", CompactedOld: 5}
	for delta := 1; delta < RecompactThreshold; delta++ {
		state, changed := c.MaybeCompact(context.Background(), prior, makeHistory(5+delta))

		assert.False(t, changed, "delta %d should not trigger", delta)
		assert.Equal(t, prior, state)
	}
	assert.Empty(t, sum.calls)
}

func TestMaybeCompactFiresAtThreshold(t *testing.T) {
	sum := &fakeSummarizer{text: "rewritten digest"}
	c := NewCompactor(sum, time.Second, nil, testLogger())

	prior := SummaryState{Summary: "earlier digest", CompactedOld: 5}
	old := makeHistory(10)
	state, changed := c.MaybeCompact(context.Background(), prior, old)

	assert.True(t, changed)
	assert.Equal(t, "rewritten digest", state.Summary)
	assert.Equal(t, 10, state.CompactedOld)

	// The batch opens with the previous summary as a synthetic npc turn
	// followed by the full old batch.
	require.Len(t, sum.calls, 1)
	batch := sum.calls[0]
	require.Len(t, batch, 11)
	assert.Equal(t, RoleNPC, batch[0].Role)
	assert.True(t, strings.HasPrefix(batch[0].Content, "[previous summary]: "))
	assert.Contains(t, batch[0].Content, "earlier digest")
	assert.Equal(t, old, batch[1:])
}

func TestMaybeCompactIdempotentOnUnchangedOld(t *testing.T) {
	sum := &fakeSummarizer{text: "digest"}
	c := NewCompactor(sum, time.Second, nil, testLogger())

	old := makeHistory(6)
	state, changed := c.MaybeCompact(context.Background(), SummaryState{}, old)
	require.True(t, changed)

	// Same old batch again: nothing new accrued, nothing happens.
	again, changed := c.MaybeCompact(context.Background(), state, old)
	assert.False(t, changed)
	assert.Equal(t, state, again)
	assert.Len(t, sum.calls, 1)
}

func TestMaybeCompactFallsBackOnFailure(t *testing.T) {
	sum := &fakeSummarizer{err: errors.New("model unavailable")}
	c := NewCompactor(sum, time.Second, nil, testLogger())

	state, changed := c.MaybeCompact(context.Background(), SummaryState{}, makeHistory(4))

	assert.True(t, changed)
	assert.Equal(t, FallbackSummary, state.Summary)
	assert.Equal(t, 4, state.CompactedOld)
}

func TestMaybeCompactFallsBackOnEmptyResult(t *testing.T) {
	sum := &fakeSummarizer{text: "   "}
	c := NewCompactor(sum, time.Second, nil, testLogger())

	state, changed := c.MaybeCompact(context.Background(), SummaryState{}, makeHistory(2))

	assert.True(t, changed)
	assert.Equal(t, FallbackSummary, state.Summary)
}

func TestMaybeCompactHonorsDeadline(t *testing.T) {
	sum := &fakeSummarizer{
		text: "too late",
		blockFn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	c := NewCompactor(sum, 10*time.Millisecond, nil, testLogger())

	state, changed := c.MaybeCompact(context.Background(), SummaryState{}, makeHistory(3))

	assert.True(t, changed)
	assert.Equal(t, FallbackSummary, state.Summary)
}
