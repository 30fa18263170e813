package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npc-chatlab/backend/internal/conversation"
)

func TestSummarizeRendersTranscript(t *testing.T) {
	var captured openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "a tidy digest"}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{LocalModelURL: srv.URL}, testLog())
	require.NoError(t, err)

	summary, err := c.Summarize(context.Background(), []conversation.Turn{
		{Role: conversation.RoleUser, Content: "where is the blacksmith"},
		{Role: conversation.RoleNPC, Content: "past the gate, turn left"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a tidy digest", summary)

	// Transcript lines labeled by speaker, wrapped in the digest prompt.
	require.NotEmpty(t, captured.Messages)
	prompt := captured.Messages[len(captured.Messages)-1].Content
	assert.Contains(t, prompt, "User: where is the blacksmith")
	assert.Contains(t, prompt, "NPC: past the gate, turn left")
	assert.Contains(t, prompt, "Summary:")
}

func TestSummarizePropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(Config{LocalModelURL: srv.URL}, testLog())
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), []conversation.Turn{
		{Role: conversation.RoleUser, Content: "hello"},
	})
	assert.Error(t, err)
}
