package service

import (
	"time"

	"npc-chatlab/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

func (s *SessionService) Create(req *models.CreateSessionRequest) (*models.Session, error) {
	session := &models.Session{
		ID:          uuid.New().String(),
		CharacterID: req.CharacterID,
		PromptID:    req.PromptID,
		Title:       req.Title,
		CreatedAt:   time.Now(),
	}
	if session.Title == "" {
		session.Title = "Untitled"
	}

	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Get(id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionService) List() ([]models.Session, error) {
	var sessions []models.Session
	if err := s.db.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session together with its messages and any feedback
// attached to them.
func (s *SessionService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id IN (?)",
			tx.Model(&models.Message{}).Select("id").Where("session_id = ?", id),
		).Delete(&models.Feedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Session{}, "id = ?", id).Error
	})
}
