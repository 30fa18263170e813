package models

import (
	"time"

	"npc-chatlab/backend/internal/conversation"
)

// Character is an operator-defined NPC persona.
type Character struct {
	ID         string                 `json:"id" gorm:"primaryKey"`
	Name       string                 `json:"name" gorm:"not null"`
	Persona    string                 `json:"persona"`
	StyleGuide conversation.StyleGuide `json:"styleGuide" gorm:"serializer:json"`
	Tags       []string               `json:"tags" gorm:"serializer:json"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

type CreateCharacterRequest struct {
	Name       string                  `json:"name" binding:"required"`
	Persona    string                  `json:"persona"`
	StyleGuide conversation.StyleGuide `json:"styleGuide"`
	Tags       []string                `json:"tags"`
}
