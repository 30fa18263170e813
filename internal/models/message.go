package models

import (
	"time"

	"npc-chatlab/backend/internal/conversation"
)

// Message is one chat log entry. Append-only within a session;
// creation order defines conversation order.
type Message struct {
	ID        string            `json:"id" gorm:"primaryKey"`
	SessionID string            `json:"session_id" gorm:"index;not null"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Meta      conversation.Meta `json:"meta" gorm:"serializer:json"`
	CreatedAt time.Time         `json:"created_at"`
}

// Feedback is an operator rating attached to a message.
type Feedback struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	MessageID string    `json:"messageId" gorm:"index;not null"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
