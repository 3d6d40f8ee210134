package handlers

import (
	"errors"
	"net/http"

	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/internal/services"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler manages chat authorization and notification preferences.
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Authorize registers a chat for bot access (POST /api/chats).
// Re-authorizing a known chat returns the existing record unchanged.
func (h *ChatHandler) Authorize(c *gin.Context) {
	logger.Info("Chat authorization endpoint called")

	var req models.AuthorizeChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID is required"})
		return
	}

	chat, err := h.chatService.Authorize(req.ChatID, req.Name)
	if err != nil {
		logger.Error("Chat authorization failed",
			zap.String("chat_id", req.ChatID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// SetActive toggles a chat's active flag (PUT /api/chats/:id/active)
func (h *ChatHandler) SetActive(c *gin.Context) {
	chatID := c.Param("id")

	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Active flag is required"})
		return
	}

	if err := h.chatService.SetActive(chatID, *req.Active); err != nil {
		if errors.Is(err, services.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdatePreference toggles one notification preference field
// (PUT /api/chats/:id/preferences)
func (h *ChatHandler) UpdatePreference(c *gin.Context) {
	chatID := c.Param("id")

	var req models.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field and value are required"})
		return
	}

	if err := h.chatService.UpdatePreference(chatID, req.Field, *req.Value); err != nil {
		if errors.Is(err, services.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		if errors.Is(err, services.ErrUnknownPreference) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// List retrieves all chats with their preferences (GET /api/chats)
func (h *ChatHandler) List(c *gin.Context) {
	chats, err := h.chatService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats, "count": len(chats)})
}
