package models

import "time"

// Prompt is a reusable prompt template. System text is concatenated
// with the character persona to form the model's instruction context.
type Prompt struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	System       string    `json:"system"`
	UserTemplate string    `json:"userTemplate"`
	VersionTag   string    `json:"versionTag"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreatePromptRequest struct {
	Name         string `json:"name" binding:"required"`
	System       string `json:"system"`
	UserTemplate string `json:"userTemplate"`
	VersionTag   string `json:"versionTag"`
	Notes        string `json:"notes"`
}
