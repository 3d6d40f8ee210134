package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/services"
	"github.com/keyoor1989/united-crm-sub004/internal/telegram"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives provider pushes. It always answers 200 so the
// provider never enters a retry storm; processing failures are logged, not
// surfaced.
type WebhookHandler struct {
	updateService *services.UpdateService
	settingsRepo  db.SettingsRepository
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(updateService *services.UpdateService, settingsRepo db.SettingsRepository) *WebhookHandler {
	return &WebhookHandler{
		updateService: updateService,
		settingsRepo:  settingsRepo,
	}
}

// Handle processes one provider update (POST /webhook/telegram).
func (h *WebhookHandler) Handle(c *gin.Context) {
	settings, err := h.settingsRepo.Get()
	if err != nil {
		logger.Error("Failed to load bot settings for webhook", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	// Reject pushes that don't carry the secret we registered. This is the
	// one case that does not get a 200: it isn't the provider.
	if settings.WebhookSecret != "" {
		provided := c.GetHeader(telegram.SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(settings.WebhookSecret)) != 1 {
			logger.Warn("Webhook call with bad secret token",
				zap.String("event_type", "webhook_bad_secret"),
			)
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		// Malformed bodies are logged and acknowledged, never bounced
		logger.Warn("Malformed webhook body", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	if err := h.updateService.ProcessUpdate(c.Request.Context(), update); err != nil {
		logger.Error("Webhook update processing failed",
			zap.Int64("update_id", update.UpdateID),
			zap.Error(err),
		)
	}

	c.Status(http.StatusOK)
}
