package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrInvalidMode indicates an unrecognized delivery mode
	ErrInvalidMode = errors.New("invalid bot mode")

	// ErrWebhookURLRequired indicates webhook mode was requested without a
	// registered webhook URL
	ErrWebhookURLRequired = errors.New("webhook URL is not configured; register one first")
)

// BotAdminService performs the provider-facing administrative actions:
// webhook registration, command list registration and mode switching.
type BotAdminService struct {
	settingsRepo db.SettingsRepository
	api          TelegramAPI
}

// NewBotAdminService creates a new BotAdminService instance
func NewBotAdminService(settingsRepo db.SettingsRepository, api TelegramAPI) *BotAdminService {
	return &BotAdminService{
		settingsRepo: settingsRepo,
		api:          api,
	}
}

// SetWebhook registers url with the provider using a freshly generated
// secret when none exists, and switches the bot into webhook mode. If the
// provider call fails, the persisted settings are rolled back to their
// prior state.
func (s *BotAdminService) SetWebhook(ctx context.Context, url string) (*models.BotSettings, error) {
	if url == "" {
		return nil, errors.New("webhook URL cannot be empty")
	}

	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load bot settings: %w", err)
	}
	previous := *settings

	if settings.WebhookSecret == "" {
		secret, err := generateWebhookSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate webhook secret: %w", err)
		}
		settings.WebhookSecret = secret
	}

	settings.Mode = models.ModeWebhook
	settings.WebhookURL = url

	if err := s.settingsRepo.Update(settings); err != nil {
		return nil, fmt.Errorf("failed to persist webhook settings: %w", err)
	}

	if err := s.api.SetWebhook(ctx, url, settings.WebhookSecret); err != nil {
		logger.Error("Provider setWebhook failed, rolling back settings",
			zap.String("url", url),
			zap.String("event_type", "webhook_registration_failed"),
			zap.Error(err),
		)
		if rollbackErr := s.settingsRepo.Update(&previous); rollbackErr != nil {
			logger.Error("Failed to roll back webhook settings",
				zap.Error(rollbackErr),
			)
			return nil, fmt.Errorf("setWebhook failed: %v, rollback failed: %w", err, rollbackErr)
		}
		return nil, fmt.Errorf("setWebhook failed: %w", err)
	}

	logger.Info("Webhook registered",
		zap.String("url", url),
		zap.String("event_type", "webhook_registered"),
	)

	return settings, nil
}

// DeleteWebhook unregisters the webhook with the provider and clears the
// persisted registration, leaving the bot disabled.
func (s *BotAdminService) DeleteWebhook(ctx context.Context) (*models.BotSettings, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load bot settings: %w", err)
	}

	if err := s.api.DeleteWebhook(ctx); err != nil {
		logger.Error("Provider deleteWebhook failed",
			zap.String("event_type", "webhook_removal_failed"),
			zap.Error(err),
		)
		return nil, fmt.Errorf("deleteWebhook failed: %w", err)
	}

	settings.Mode = models.ModeDisabled
	settings.WebhookURL = ""
	settings.WebhookSecret = ""

	if err := s.settingsRepo.Update(settings); err != nil {
		return nil, fmt.Errorf("failed to clear webhook settings: %w", err)
	}

	logger.Info("Webhook removed", zap.String("event_type", "webhook_removed"))

	return settings, nil
}

// SetCommands registers the fixed command list with the provider.
func (s *BotAdminService) SetCommands(ctx context.Context) error {
	if err := s.api.SetMyCommands(ctx, BotCommandList()); err != nil {
		logger.Error("Provider setMyCommands failed", zap.Error(err))
		return fmt.Errorf("setMyCommands failed: %w", err)
	}

	logger.Info("Bot commands registered")
	return nil
}

// SetMode switches the update delivery mode. The mode is a single enum, so
// enabling one mode structurally disables the other. Enabling polling
// resets the poll offset to 0 and drops any webhook registration.
func (s *BotAdminService) SetMode(ctx context.Context, mode string) (*models.BotSettings, error) {
	if !models.ValidMode(mode) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}

	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load bot settings: %w", err)
	}

	switch mode {
	case models.ModeWebhook:
		if settings.WebhookURL == "" {
			return nil, ErrWebhookURLRequired
		}
	case models.ModePolling:
		settings.LastUpdateID = 0
		if settings.WebhookURL != "" {
			// Best effort: Telegram refuses getUpdates while a webhook is
			// registered, so drop it before switching
			if err := s.api.DeleteWebhook(ctx); err != nil {
				logger.Warn("Failed to remove webhook while enabling polling",
					zap.Error(err),
				)
			}
			settings.WebhookURL = ""
			settings.WebhookSecret = ""
		}
	}

	settings.Mode = mode

	if err := s.settingsRepo.Update(settings); err != nil {
		return nil, fmt.Errorf("failed to persist mode change: %w", err)
	}

	logger.Info("Bot mode changed",
		zap.String("mode", mode),
		zap.String("event_type", "bot_mode_changed"),
	)

	return settings, nil
}

// generateWebhookSecret produces a 64-character hex secret.
func generateWebhookSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
