package service

import (
	"encoding/json"
	"errors"
	"time"

	"npc-chatlab/backend/internal/models"
	"npc-chatlab/backend/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Defaults applied when a prompt omits optional fields.
const (
	DefaultUserTemplate = "{{user}}"
	DefaultVersionTag   = "v1"
)

type PromptService struct {
	db       *gorm.DB
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewPromptService(db *gorm.DB, c cache.Cache, cacheTTL time.Duration) *PromptService {
	return &PromptService{db: db, cache: c, cacheTTL: cacheTTL}
}

func (s *PromptService) Create(req *models.CreatePromptRequest) (*models.Prompt, error) {
	if req.Name == "" {
		return nil, errors.New("prompt name is required")
	}

	prompt := &models.Prompt{
		ID:           uuid.New().String(),
		Name:         req.Name,
		System:       req.System,
		UserTemplate: req.UserTemplate,
		VersionTag:   req.VersionTag,
		Notes:        req.Notes,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if prompt.UserTemplate == "" {
		prompt.UserTemplate = DefaultUserTemplate
	}
	if prompt.VersionTag == "" {
		prompt.VersionTag = DefaultVersionTag
	}

	if err := s.db.Create(prompt).Error; err != nil {
		return nil, err
	}
	return prompt, nil
}

func (s *PromptService) Get(id string) (*models.Prompt, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(promptCacheKey(id)); ok {
			var prompt models.Prompt
			if err := json.Unmarshal([]byte(raw), &prompt); err == nil {
				return &prompt, nil
			}
		}
	}

	var prompt models.Prompt
	if err := s.db.First(&prompt, "id = ?", id).Error; err != nil {
		return nil, err
	}

	s.cacheSet(&prompt)
	return &prompt, nil
}

func (s *PromptService) List() ([]models.Prompt, error) {
	var prompts []models.Prompt
	if err := s.db.Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

func (s *PromptService) Update(id string, req *models.CreatePromptRequest) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := s.db.First(&prompt, "id = ?", id).Error; err != nil {
		return nil, err
	}

	prompt.Name = req.Name
	prompt.System = req.System
	prompt.UserTemplate = req.UserTemplate
	prompt.VersionTag = req.VersionTag
	prompt.Notes = req.Notes
	if prompt.UserTemplate == "" {
		prompt.UserTemplate = DefaultUserTemplate
	}
	if prompt.VersionTag == "" {
		prompt.VersionTag = DefaultVersionTag
	}
	prompt.UpdatedAt = time.Now()

	if err := s.db.Save(&prompt).Error; err != nil {
		return nil, err
	}

	s.cacheSet(&prompt)
	return &prompt, nil
}

func (s *PromptService) Delete(id string) error {
	if s.cache != nil {
		s.cache.Delete(promptCacheKey(id))
	}
	return s.db.Delete(&models.Prompt{}, "id = ?", id).Error
}

func (s *PromptService) cacheSet(prompt *models.Prompt) {
	if s.cache == nil {
		return
	}
	if raw, err := json.Marshal(prompt); err == nil {
		s.cache.Set(promptCacheKey(prompt.ID), string(raw), s.cacheTTL)
	}
}

func promptCacheKey(id string) string {
	return "prompt:" + id
}
