package ai

import (
	"context"
	"fmt"
	"strings"

	"npc-chatlab/backend/internal/conversation"
)

const summaryPromptFormat = `The following is a conversation with an NPC. Summarize its core
content and context in 5-6 sentences. Include important events,
decisions, changes in relationships between the participants, and key
information:

%s

Summary:`

// Summarize compresses a batch of turns into a short running digest.
// The caller handles failures; this method just reports them.
func (c *Client) Summarize(ctx context.Context, turns []conversation.Turn) (string, error) {
	var b strings.Builder
	for _, turn := range turns {
		speaker := "NPC"
		if turn.Role == conversation.RoleUser {
			speaker = "User"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	in := conversation.GenerationInput{
		UserText: fmt.Sprintf(summaryPromptFormat, b.String()),
	}

	var (
		summary string
		err     error
	)
	switch c.config.SummaryModel {
	case ModelLocal:
		summary, err = c.generateLocal(ctx, in)
	default:
		summary, err = c.generateGemini(ctx, in, summaryGenerationConfig)
	}
	if err != nil {
		return "", err
	}

	c.log.Info("conversation summarized",
		"messages", len(turns),
		"summary_chars", len(summary),
	)
	return summary, nil
}
