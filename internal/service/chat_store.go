package service

import (
	"context"
	"time"

	"npc-chatlab/backend/internal/conversation"
	"npc-chatlab/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatStore is the gorm-backed persistence collaborator for the reply
// orchestrator. Reads within a turn see writes made earlier in the same
// turn; the session summary is always replaced wholesale.
type ChatStore struct {
	db *gorm.DB
}

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

var _ conversation.Store = (*ChatStore)(nil)

// History returns the session's full ordered message log.
func (s *ChatStore) History(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	turns := make([]conversation.Turn, len(messages))
	for i, msg := range messages {
		turns[i] = conversation.Turn{Role: msg.Role, Content: msg.Content}
	}
	return turns, nil
}

// AppendMessage persists one log entry and returns the stored record.
func (s *ChatStore) AppendMessage(ctx context.Context, sessionID, role, content string, meta conversation.Meta) (conversation.Message, error) {
	msg := models.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Meta:      meta,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return conversation.Message{}, err
	}
	return toConversationMessage(msg), nil
}

// UpdateSummary replaces the session's running summary and records how
// many old messages it reflects.
func (s *ChatStore) UpdateSummary(ctx context.Context, sessionID, summary string, compactedOld int) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"summary":          summary,
			"summarized_count": compactedOld,
		}).Error
}

func toConversationMessage(msg models.Message) conversation.Message {
	return conversation.Message{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		Meta:      msg.Meta,
		CreatedAt: msg.CreatedAt,
	}
}
