package api

import (
	"errors"
	"net/http"

	"npc-chatlab/backend/internal/models"
	"npc-chatlab/backend/internal/service"
	apperrors "npc-chatlab/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CharacterHandler handles character CRUD endpoints
type CharacterHandler struct {
	characters *service.CharacterService
}

func NewCharacterHandler(characters *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{characters: characters}
}

// RegisterRoutes registers the character routes on the given group
func (h *CharacterHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/characters", h.ListCharacters)
	group.POST("/characters", h.CreateCharacter)
	group.PUT("/characters/:id", h.UpdateCharacter)
	group.DELETE("/characters/:id", h.DeleteCharacter)
}

func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	characters, err := h.characters.List()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	character, err := h.characters.Create(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	character, err := h.characters.Update(c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperrors.NewNotFoundError("CHARACTER_NOT_FOUND", "Character not found"))
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	if err := h.characters.Delete(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
