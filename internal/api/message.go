package api

import (
	"errors"
	"net/http"

	"npc-chatlab/backend/internal/conversation"
	"npc-chatlab/backend/internal/service"
	apperrors "npc-chatlab/backend/pkg/errors"
	"npc-chatlab/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ModelRegistry reports which generation models are available.
type ModelRegistry interface {
	Supports(model string) bool
	Models() []string
}

// TurnPublisher receives the persisted messages of a completed turn
// for live observers.
type TurnPublisher interface {
	PublishTurn(sessionID string, messages []conversation.Message)
}

// MessageHandler handles chat turn and feedback endpoints
type MessageHandler struct {
	sessions     *service.SessionService
	characters   *service.CharacterService
	prompts      *service.PromptService
	messages     *service.MessageService
	orchestrator *conversation.Orchestrator
	registry     ModelRegistry
	publisher    TurnPublisher
	fallback     string
}

func NewMessageHandler(
	sessions *service.SessionService,
	characters *service.CharacterService,
	prompts *service.PromptService,
	messages *service.MessageService,
	orchestrator *conversation.Orchestrator,
	registry ModelRegistry,
	publisher TurnPublisher,
	defaultModel string,
) *MessageHandler {
	return &MessageHandler{
		sessions:     sessions,
		characters:   characters,
		prompts:      prompts,
		messages:     messages,
		orchestrator: orchestrator,
		registry:     registry,
		publisher:    publisher,
		fallback:     defaultModel,
	}
}

// RegisterRoutes registers the message routes on the given group
func (h *MessageHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/messages/:sessionId", h.GetSessionMessages)
	group.POST("/messages", h.SendMessage)
	group.POST("/messages/compare", h.SendCompareMessage)
	group.POST("/feedback", h.CreateFeedback)
}

func (h *MessageHandler) GetSessionMessages(c *gin.Context) {
	messages, err := h.messages.ListBySession(c.Param("sessionId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage runs one single-model turn: the user message is
// persisted, the reply generated, scored, and persisted alongside it.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
		Content   string `json:"content" binding:"required"`
		Model     string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}
	if req.Model == "" {
		req.Model = h.defaultModel()
	}
	if !h.registry.Supports(req.Model) {
		c.Error(apperrors.NewBadRequestError("UNKNOWN_MODEL", "Requested model is not configured"))
		return
	}

	profile, ok := h.resolveProfile(c, req.SessionID)
	if !ok {
		return
	}

	result, err := h.orchestrator.GenerateReply(c.Request.Context(), profile, req.Content, req.Model)
	if err != nil {
		c.Error(err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishTurn(req.SessionID, []conversation.Message{result.User, result.NPC})
	}

	c.JSON(http.StatusOK, result)
}

// SendCompareMessage runs one turn against several models. Each
// model's generation is independent; partial failures yield error
// placeholder replies rather than failing the turn.
func (h *MessageHandler) SendCompareMessage(c *gin.Context) {
	var req struct {
		SessionID string   `json:"sessionId" binding:"required"`
		Content   string   `json:"content" binding:"required"`
		Models    []string `json:"models" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}
	for _, model := range req.Models {
		if !h.registry.Supports(model) {
			c.Error(apperrors.NewBadRequestError("UNKNOWN_MODEL", "Requested model is not configured: "+model))
			return
		}
	}

	profile, ok := h.resolveProfile(c, req.SessionID)
	if !ok {
		return
	}

	result, err := h.orchestrator.GenerateCompareReplies(c.Request.Context(), profile, req.Content, req.Models)
	if err != nil {
		c.Error(err)
		return
	}

	if h.publisher != nil {
		turn := []conversation.Message{result.User}
		for _, reply := range result.Replies {
			turn = append(turn, reply)
		}
		h.publisher.PublishTurn(req.SessionID, turn)
	}

	c.JSON(http.StatusOK, result)
}

func (h *MessageHandler) CreateFeedback(c *gin.Context) {
	var req struct {
		MessageID string `json:"messageId" binding:"required"`
		Rating    int    `json:"rating" binding:"required"`
		Comment   string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	feedback, err := h.messages.CreateFeedback(req.MessageID, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperrors.NewNotFoundError("MESSAGE_NOT_FOUND", "Message not found"))
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// resolveProfile loads the session and its character/prompt references,
// mapping missing records to not-found conditions. The style guide and
// prompt text captured here are the ones in effect for this turn.
func (h *MessageHandler) resolveProfile(c *gin.Context, sessionID string) (conversation.Profile, bool) {
	session, err := h.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperrors.NewNotFoundError("SESSION_NOT_FOUND", "Session not found"))
			return conversation.Profile{}, false
		}
		c.Error(err)
		return conversation.Profile{}, false
	}

	character, err := h.characters.Get(session.CharacterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperrors.NewNotFoundError("CHARACTER_NOT_FOUND", "Character not found"))
			return conversation.Profile{}, false
		}
		c.Error(err)
		return conversation.Profile{}, false
	}

	prompt, err := h.prompts.Get(session.PromptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperrors.NewNotFoundError("PROMPT_NOT_FOUND", "Prompt not found"))
			return conversation.Profile{}, false
		}
		c.Error(err)
		return conversation.Profile{}, false
	}

	logger.FromContext(c).WithSessionID(sessionID).Debug("turn profile resolved",
		"character", character.Name,
		"prompt", prompt.Name,
		"has_summary", session.Summary != "",
	)

	return conversation.Profile{
		SessionID: session.ID,
		Persona:   character.Persona,
		System:    prompt.System,
		Style:     character.StyleGuide,
		State: conversation.SummaryState{
			Summary:      session.Summary,
			CompactedOld: session.SummarizedCount,
		},
	}, true
}

// defaultModel prefers the configured default when that backend is
// actually available, otherwise the first configured one.
func (h *MessageHandler) defaultModel() string {
	if h.fallback != "" && h.registry.Supports(h.fallback) {
		return h.fallback
	}
	if models := h.registry.Models(); len(models) > 0 {
		return models[0]
	}
	return ""
}
