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

type CharacterService struct {
	db       *gorm.DB
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewCharacterService(db *gorm.DB, c cache.Cache, cacheTTL time.Duration) *CharacterService {
	return &CharacterService{db: db, cache: c, cacheTTL: cacheTTL}
}

func (s *CharacterService) Create(req *models.CreateCharacterRequest) (*models.Character, error) {
	if req.Name == "" {
		return nil, errors.New("character name is required")
	}

	character := &models.Character{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Persona:    req.Persona,
		StyleGuide: req.StyleGuide,
		Tags:       req.Tags,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if character.Tags == nil {
		character.Tags = []string{}
	}

	if err := s.db.Create(character).Error; err != nil {
		return nil, err
	}
	return character, nil
}

func (s *CharacterService) Get(id string) (*models.Character, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(characterCacheKey(id)); ok {
			var character models.Character
			if err := json.Unmarshal([]byte(raw), &character); err == nil {
				return &character, nil
			}
		}
	}

	var character models.Character
	if err := s.db.First(&character, "id = ?", id).Error; err != nil {
		return nil, err
	}

	s.cacheSet(&character)
	return &character, nil
}

func (s *CharacterService) List() ([]models.Character, error) {
	var characters []models.Character
	if err := s.db.Find(&characters).Error; err != nil {
		return nil, err
	}
	return characters, nil
}

func (s *CharacterService) Update(id string, req *models.CreateCharacterRequest) (*models.Character, error) {
	var character models.Character
	if err := s.db.First(&character, "id = ?", id).Error; err != nil {
		return nil, err
	}

	character.Name = req.Name
	character.Persona = req.Persona
	character.StyleGuide = req.StyleGuide
	if req.Tags != nil {
		character.Tags = req.Tags
	}
	character.UpdatedAt = time.Now()

	if err := s.db.Save(&character).Error; err != nil {
		return nil, err
	}

	s.cacheSet(&character)
	return &character, nil
}

func (s *CharacterService) Delete(id string) error {
	if s.cache != nil {
		s.cache.Delete(characterCacheKey(id))
	}
	return s.db.Delete(&models.Character{}, "id = ?", id).Error
}

func (s *CharacterService) cacheSet(character *models.Character) {
	if s.cache == nil {
		return
	}
	if raw, err := json.Marshal(character); err == nil {
		s.cache.Set(characterCacheKey(character.ID), string(raw), s.cacheTTL)
	}
}

func characterCacheKey(id string) string {
	return "character:" + id
}
