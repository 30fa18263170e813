package service

import (
	"time"

	"npc-chatlab/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// ListBySession returns all messages of a session in conversation
// order.
func (s *MessageService) ListBySession(sessionID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// CreateFeedback attaches an operator rating to a message.
func (s *MessageService) CreateFeedback(messageID string, rating int, comment string) (*models.Feedback, error) {
	if err := s.db.First(&models.Message{}, "id = ?", messageID).Error; err != nil {
		return nil, err
	}

	feedback := &models.Feedback{
		ID:        uuid.New().String(),
		MessageID: messageID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

// FeedbackByMessage returns the feedback rows for a set of messages,
// keyed by message ID. A message without feedback has no entry.
func (s *MessageService) FeedbackByMessage(sessionID string) (map[string]models.Feedback, error) {
	var rows []models.Feedback
	err := s.db.
		Where("message_id IN (?)",
			s.db.Model(&models.Message{}).Select("id").Where("session_id = ?", sessionID),
		).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byMessage := make(map[string]models.Feedback, len(rows))
	for _, row := range rows {
		byMessage[row.MessageID] = row
	}
	return byMessage, nil
}
