package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps the session log in memory, mirroring the ordering
// guarantees of the real store.
type fakeStore struct {
	mu           sync.Mutex
	messages     []Message
	summary      string
	compactedOld int
	summaryWrits int
}

func (s *fakeStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]Turn, len(s.messages))
	for i, m := range s.messages {
		turns[i] = Turn{Role: m.Role, Content: m.Content}
	}
	return turns, nil
}

func (s *fakeStore) AppendMessage(_ context.Context, sessionID, role, content string, meta Meta) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := Message{
		ID:        fmt.Sprintf("m%d", len(s.messages)+1),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Meta:      meta,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *fakeStore) UpdateSummary(_ context.Context, sessionID, summary string, compactedOld int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.compactedOld = compactedOld
	s.summaryWrits++
	return nil
}

func (s *fakeStore) seed(turns []Turn) {
	for _, turn := range turns {
		s.messages = append(s.messages, Message{
			ID:      fmt.Sprintf("m%d", len(s.messages)+1),
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
}

// fakeGenerator returns a canned reply per model, recording the inputs
// it was called with.
type fakeGenerator struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	inputs  []GenerationInput
	block   map[string]bool
}

func (g *fakeGenerator) Generate(ctx context.Context, model string, in GenerationInput) (string, error) {
	g.mu.Lock()
	g.inputs = append(g.inputs, in)
	g.mu.Unlock()

	if g.block[model] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err, ok := g.errs[model]; ok {
		return "", err
	}
	return g.replies[model], nil
}

func newTestOrchestrator(store *fakeStore, gen *fakeGenerator, sum Summarizer) *Orchestrator {
	log := testLogger()
	if sum == nil {
		sum = &fakeSummarizer{text: "digest"}
	}
	compactor := NewCompactor(sum, time.Second, nil, log)
	return NewOrchestrator(store, gen, compactor, time.Second, nil, log)
}

func profileFor(store *fakeStore) Profile {
	return Profile{
		SessionID: "s1",
		Persona:   "A weary merchant.",
		System:    "Stay in character.",
		Style:     StyleGuide{Tone: "gritty"},
		State:     SummaryState{Summary: store.summary, CompactedOld: store.compactedOld},
	}
}

func TestGenerateReplyPersistsTurn(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{replies: map[string]string{"gemini": "A gritty reply about trade."}}
	o := newTestOrchestrator(store, gen, nil)

	result, err := o.GenerateReply(context.Background(), profileFor(store), "hello merchant", "gemini")
	require.NoError(t, err)

	assert.Equal(t, RoleUser, result.User.Role)
	assert.Equal(t, "hello merchant", result.User.Content)
	assert.Equal(t, RoleNPC, result.NPC.Role)
	assert.Equal(t, "A gritty reply about trade.", result.NPC.Content)
	assert.Equal(t, "gemini", result.NPC.Meta.Model)
	assert.False(t, result.NPC.Meta.Error)

	require.NotNil(t, result.NPC.Meta.Metrics)
	assert.Equal(t, 5, result.NPC.Meta.Metrics.Length)
	require.NotNil(t, result.NPC.Meta.Metrics.ToneMatch)
	assert.True(t, *result.NPC.Meta.Metrics.ToneMatch)

	require.Len(t, store.messages, 2)
	assert.Equal(t, RoleUser, store.messages[0].Role)
	assert.Equal(t, RoleNPC, store.messages[1].Role)
}

func TestGenerateReplyExcludesInFlightMessageFromHistory(t *testing.T) {
	store := &fakeStore{}
	store.seed(makeHistory(4))
	gen := &fakeGenerator{replies: map[string]string{"gemini": "ok"}}
	o := newTestOrchestrator(store, gen, nil)

	_, err := o.GenerateReply(context.Background(), profileFor(store), "new message", "gemini")
	require.NoError(t, err)

	require.Len(t, gen.inputs, 1)
	assert.Len(t, gen.inputs[0].History, 4)
	assert.Equal(t, "new message", gen.inputs[0].UserText)
}

func TestGenerateReplyCompactsLongHistory(t *testing.T) {
	store := &fakeStore{}
	store.seed(makeHistory(20))
	gen := &fakeGenerator{replies: map[string]string{"gemini": "ok"}}
	sum := &fakeSummarizer{text: "five messages of haggling"}
	o := newTestOrchestrator(store, gen, sum)

	_, err := o.GenerateReply(context.Background(), profileFor(store), "message 21", "gemini")
	require.NoError(t, err)

	// Old prefix was summarized and persisted.
	assert.Equal(t, "five messages of haggling", store.summary)
	assert.Equal(t, 5, store.compactedOld)
	assert.Equal(t, 1, store.summaryWrits)

	// The model saw the recent window only, with the summary folded
	// into the system context.
	require.Len(t, gen.inputs, 1)
	in := gen.inputs[0]
	require.Len(t, in.History, RecentWindow)
	assert.Equal(t, "message 6", in.History[0].Content)
	assert.Equal(t, "message 20", in.History[14].Content)
	assert.Contains(t, in.System, "five messages of haggling")
	assert.Contains(t, in.System, "A weary merchant.")
}

func TestGenerateReplyShortHistorySkipsSummary(t *testing.T) {
	store := &fakeStore{}
	store.seed(makeHistory(10))
	gen := &fakeGenerator{replies: map[string]string{"gemini": "ok"}}
	o := newTestOrchestrator(store, gen, nil)

	_, err := o.GenerateReply(context.Background(), profileFor(store), "hi", "gemini")
	require.NoError(t, err)

	assert.Empty(t, store.summary)
	assert.Zero(t, store.summaryWrits)
	assert.NotContains(t, gen.inputs[0].System, "[previous summary]")
}

func TestGenerateReplyDegradesOnFailure(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{errs: map[string]error{"gemini": errors.New("upstream down")}}
	o := newTestOrchestrator(store, gen, nil)

	result, err := o.GenerateReply(context.Background(), profileFor(store), "hello", "gemini")
	require.NoError(t, err)

	assert.Equal(t, FallbackReply, result.NPC.Content)
	assert.True(t, result.NPC.Meta.Error)
	require.NotNil(t, result.NPC.Meta.Metrics)
	assert.Equal(t, 5, result.NPC.Meta.Metrics.Length)

	// Both sides of the turn are on the log regardless.
	require.Len(t, store.messages, 2)
}

func TestGenerateReplyDegradesOnTimeout(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{block: map[string]bool{"local": true}}
	log := testLogger()
	compactor := NewCompactor(&fakeSummarizer{text: "digest"}, time.Second, nil, log)
	o := NewOrchestrator(store, gen, compactor, 10*time.Millisecond, nil, log)

	result, err := o.GenerateReply(context.Background(), profileFor(store), "hello", "local")
	require.NoError(t, err)

	assert.Equal(t, FallbackReply, result.NPC.Content)
	assert.True(t, result.NPC.Meta.Error)
}

func TestGenerateCompareRepliesIndependentOutcomes(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{
		replies: map[string]string{"gemini": "polished reply"},
		block:   map[string]bool{"local": true},
	}
	log := testLogger()
	compactor := NewCompactor(&fakeSummarizer{text: "digest"}, time.Second, nil, log)
	o := NewOrchestrator(store, gen, compactor, 20*time.Millisecond, nil, log)

	result, err := o.GenerateCompareReplies(context.Background(), profileFor(store), "compare this", []string{"gemini", "local"})
	require.NoError(t, err)

	assert.True(t, result.User.Meta.Compare)
	require.Len(t, result.Replies, 2)

	assert.Equal(t, "polished reply", result.Replies["gemini"].Content)
	assert.False(t, result.Replies["gemini"].Meta.Error)

	assert.Equal(t, FallbackReply, result.Replies["local"].Content)
	assert.True(t, result.Replies["local"].Meta.Error)

	// One user message plus one reply per model, all persisted.
	require.Len(t, store.messages, 3)
	assert.Equal(t, RoleUser, store.messages[0].Role)
}

func TestGenerateCompareRepliesSharedContext(t *testing.T) {
	store := &fakeStore{}
	store.seed(makeHistory(20))
	gen := &fakeGenerator{replies: map[string]string{"a": "ra", "b": "rb"}}
	sum := &fakeSummarizer{text: "shared digest"}
	o := newTestOrchestrator(store, gen, sum)

	_, err := o.GenerateCompareReplies(context.Background(), profileFor(store), "go", []string{"a", "b"})
	require.NoError(t, err)

	// Compaction ran once for the turn, not once per model.
	assert.Equal(t, 1, store.summaryWrits)
	require.Len(t, sum.calls, 1)

	// Every model received identical input.
	require.Len(t, gen.inputs, 2)
	assert.Equal(t, gen.inputs[0], gen.inputs[1])
}

func TestSystemContext(t *testing.T) {
	s := systemContext("persona text", "system text", "")
	assert.Equal(t, "persona text\nsystem text", s)

	s = systemContext("persona text", "system text", "old digest")
	assert.Contains(t, s, "[previous summary]\nold digest")
}
