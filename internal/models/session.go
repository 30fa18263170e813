package models

import "time"

// Session is one chat session against a character/prompt pair. Summary
// is the running digest of old history; it is always replaced
// wholesale, never partially updated. SummarizedCount records how many
// old messages the summary reflected at the last compaction.
type Session struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	CharacterID     string    `json:"characterId" gorm:"index;not null"`
	PromptID        string    `json:"promptId" gorm:"index;not null"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	SummarizedCount int       `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateSessionRequest struct {
	CharacterID string `json:"characterId" binding:"required"`
	PromptID    string `json:"promptId" binding:"required"`
	Title       string `json:"title"`
}
