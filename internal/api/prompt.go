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

// PromptHandler handles prompt template CRUD endpoints
type PromptHandler struct {
	prompts *service.PromptService
}

func NewPromptHandler(prompts *service.PromptService) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

// RegisterRoutes registers the prompt routes on the given group
func (h *PromptHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/prompts", h.ListPrompts)
	group.POST("/prompts", h.CreatePrompt)
	group.PUT("/prompts/:id", h.UpdatePrompt)
	group.DELETE("/prompts/:id", h.DeletePrompt)
}

func (h *PromptHandler) ListPrompts(c *gin.Context) {
	prompts, err := h.prompts.List()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}

func (h *PromptHandler) CreatePrompt(c *gin.Context) {
	var req models.CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	prompt, err := h.prompts.Create(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

func (h *PromptHandler) UpdatePrompt(c *gin.Context) {
	var req models.CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	prompt, err := h.prompts.Update(c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperrors.NewNotFoundError("PROMPT_NOT_FOUND", "Prompt not found"))
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

func (h *PromptHandler) DeletePrompt(c *gin.Context) {
	if err := h.prompts.Delete(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
