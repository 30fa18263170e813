package api

import (
	"errors"
	"fmt"
	"net/http"

	"npc-chatlab/backend/internal/models"
	"npc-chatlab/backend/internal/service"
	apperrors "npc-chatlab/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionHandler handles chat session endpoints
type SessionHandler struct {
	sessions *service.SessionService
	messages *service.MessageService
}

func NewSessionHandler(sessions *service.SessionService, messages *service.MessageService) *SessionHandler {
	return &SessionHandler{sessions: sessions, messages: messages}
}

// RegisterRoutes registers the session routes on the given group
func (h *SessionHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/sessions", h.ListSessions)
	group.POST("/sessions", h.CreateSession)
	group.DELETE("/sessions/:id", h.DeleteSession)
	group.GET("/sessions/:id/export", h.ExportSession)
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	session, err := h.sessions.Create(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ExportSession streams the session log with metrics and feedback as a
// CSV attachment.
func (h *SessionHandler) ExportSession(c *gin.Context) {
	sessionID := c.Param("id")

	if _, err := h.sessions.Get(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperrors.NewNotFoundError("SESSION_NOT_FOUND", "Session not found"))
			return
		}
		c.Error(err)
		return
	}

	csv, err := h.messages.ExportSessionCSV(sessionID)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "session_"+sessionID+".csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
