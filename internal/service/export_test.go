package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npc-chatlab/backend/internal/conversation"
	"npc-chatlab/backend/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestRenderSessionCSVEmpty(t *testing.T) {
	out := RenderSessionCSV(nil, nil)
	assert.Equal(t, "role,content,model,length,forbiddenHits,toneMatch,rating,comment", out)
}

func TestRenderSessionCSV(t *testing.T) {
	messages := []models.Message{
		{
			ID:      "m1",
			Role:    conversation.RoleUser,
			Content: "hello there",
			Meta:    conversation.Meta{},
		},
		{
			ID:      "m2",
			Role:    conversation.RoleNPC,
			Content: "a gritty 금지어1 reply",
			Meta: conversation.Meta{
				Model: "gemini",
				Metrics: &conversation.Metrics{
					Length:        4,
					ForbiddenHits: []string{"금지어1"},
					ToneMatch:     boolPtr(true),
				},
			},
		},
	}
	feedback := map[string]models.Feedback{
		"m2": {MessageID: "m2", Rating: 4, Comment: "solid"},
	}

	out := RenderSessionCSV(messages, feedback)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, `user,"hello there",,,,,,""`, lines[1])
	assert.Equal(t, `npc,"a gritty 금지어1 reply",gemini,4,금지어1,true,4,"solid"`, lines[2])
}

func TestRenderSessionCSVMultipleForbiddenHits(t *testing.T) {
	messages := []models.Message{
		{
			ID:      "m1",
			Role:    conversation.RoleNPC,
			Content: "bad",
			Meta: conversation.Meta{
				Model: "local",
				Metrics: &conversation.Metrics{
					Length:        1,
					ForbiddenHits: []string{"금지어1", "욕설"},
				},
			},
		},
	}

	out := RenderSessionCSV(messages, nil)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)

	// Hits pipe-joined, tone column empty when no tone was configured.
	assert.Equal(t, `npc,"bad",local,1,금지어1|욕설,,,""`, lines[1])
}

func TestRenderSessionCSVEscapesQuotes(t *testing.T) {
	messages := []models.Message{
		{
			ID:      "m1",
			Role:    conversation.RoleUser,
			Content: `say "hello", friend`,
		},
	}

	out := RenderSessionCSV(messages, nil)
	assert.Contains(t, out, `"say ""hello"", friend"`)
}
