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

// BotAdminHandler exposes the provider-facing administrative actions.
type BotAdminHandler struct {
	adminService  *services.BotAdminService
	updateService *services.UpdateService
}

// NewBotAdminHandler creates a new bot admin handler
func NewBotAdminHandler(adminService *services.BotAdminService, updateService *services.UpdateService) *BotAdminHandler {
	return &BotAdminHandler{
		adminService:  adminService,
		updateService: updateService,
	}
}

// SetWebhook registers a webhook URL with the provider (POST /api/bot/webhook)
func (h *BotAdminHandler) SetWebhook(c *gin.Context) {
	logger.Info("Set webhook endpoint called")

	var req models.SetWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook URL is required"})
		return
	}

	settings, err := h.adminService.SetWebhook(c.Request.Context(), req.URL)
	if err != nil {
		logger.Warn("Webhook registration failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// DeleteWebhook removes the webhook registration (DELETE /api/bot/webhook)
func (h *BotAdminHandler) DeleteWebhook(c *gin.Context) {
	logger.Info("Delete webhook endpoint called")

	settings, err := h.adminService.DeleteWebhook(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SetCommands registers the bot command list (POST /api/bot/commands)
func (h *BotAdminHandler) SetCommands(c *gin.Context) {
	logger.Info("Set commands endpoint called")

	if err := h.adminService.SetCommands(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// SetMode switches the update delivery mode (PUT /api/bot/mode)
func (h *BotAdminHandler) SetMode(c *gin.Context) {
	logger.Info("Set mode endpoint called")

	var req models.SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mode is required"})
		return
	}

	settings, err := h.adminService.SetMode(c.Request.Context(), req.Mode)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMode) || errors.Is(err, services.ErrWebhookURLRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// Poll runs one manual poll batch (POST /api/bot/poll)
func (h *BotAdminHandler) Poll(c *gin.Context) {
	logger.Info("Manual poll endpoint called")

	result, err := h.updateService.ProcessBatch(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrPollingDisabled) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
