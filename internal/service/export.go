package service

import (
	"strconv"
	"strings"

	"npc-chatlab/backend/internal/models"
)

var csvHeader = []string{"role", "content", "model", "length", "forbiddenHits", "toneMatch", "rating", "comment"}

// ExportSessionCSV renders a session's log, per-message metrics, and
// any attached feedback as CSV for external analysis.
func (s *MessageService) ExportSessionCSV(sessionID string) (string, error) {
	messages, err := s.ListBySession(sessionID)
	if err != nil {
		return "", err
	}
	feedback, err := s.FeedbackByMessage(sessionID)
	if err != nil {
		return "", err
	}
	return RenderSessionCSV(messages, feedback), nil
}

// RenderSessionCSV builds the CSV document. toneMatch serializes as
// true/false, or empty when no tone was configured for the character.
func RenderSessionCSV(messages []models.Message, feedback map[string]models.Feedback) string {
	lines := make([]string, 0, len(messages)+1)
	lines = append(lines, strings.Join(csvHeader, ","))

	for _, msg := range messages {
		var (
			length    string
			forbidden string
			toneMatch string
		)
		if m := msg.Meta.Metrics; m != nil {
			length = strconv.Itoa(m.Length)
			forbidden = strings.Join(m.ForbiddenHits, "|")
			if m.ToneMatch != nil {
				toneMatch = strconv.FormatBool(*m.ToneMatch)
			}
		}

		var rating, comment string
		if fb, ok := feedback[msg.ID]; ok {
			rating = strconv.Itoa(fb.Rating)
			comment = fb.Comment
		}

		lines = append(lines, strings.Join([]string{
			msg.Role,
			csvQuote(msg.Content),
			msg.Meta.Model,
			length,
			forbidden,
			toneMatch,
			rating,
			csvQuote(comment),
		}, ","))
	}

	return strings.Join(lines, "\n")
}

// csvQuote wraps a field in double quotes, doubling any embedded ones.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
