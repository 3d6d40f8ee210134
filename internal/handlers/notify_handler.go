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

// NotifyHandler dispatches domain-event notifications to subscribed chats.
type NotifyHandler struct {
	notifier *services.NotifierService
}

// NewNotifyHandler creates a new notify handler
func NewNotifyHandler(notifier *services.NotifierService) *NotifyHandler {
	return &NotifyHandler{notifier: notifier}
}

// Notify fans a domain event out to subscribed chats (POST /api/notify)
func (h *NotifyHandler) Notify(c *gin.Context) {
	logger.Info("Notify endpoint called")

	var req models.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kind is required"})
		return
	}

	result, err := h.notifier.Notify(c.Request.Context(), req.Kind, req.Payload)
	if err != nil {
		if errors.Is(err, services.ErrUnknownKind) || errors.Is(err, services.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Notification dispatch failed",
			zap.String("kind", req.Kind),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
