package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/internal/telegram"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"go.uber.org/zap"
)

// unauthorizedReply is the only text an unknown or deactivated chat ever
// receives.
const unauthorizedReply = "This chat is not authorized to use the United Copier assistant. " +
	"Please contact the office to get access."

var (
	// ErrPollingDisabled indicates a poll run was requested while the bot
	// is not in polling mode
	ErrPollingDisabled = errors.New("polling is not enabled")
)

// BatchResult aggregates the outcome of one poll batch. Handlers are joined
// before the result is produced, so counts reflect completed dispatches.
type BatchResult struct {
	Updates      int   `json:"updates"`
	Processed    int   `json:"processed"`
	Failed       int   `json:"failed"`
	LastUpdateID int64 `json:"last_update_id"`
}

// UpdateService receives provider updates from the webhook or the poll loop
// and hands authorized ones to the command router.
type UpdateService struct {
	chatRepo     db.ChatRepository
	logRepo      db.MessageLogRepository
	settingsRepo db.SettingsRepository
	router       *CommandRouter
	api          TelegramAPI
}

// NewUpdateService creates a new UpdateService instance
func NewUpdateService(
	chatRepo db.ChatRepository,
	logRepo db.MessageLogRepository,
	settingsRepo db.SettingsRepository,
	router *CommandRouter,
	api TelegramAPI,
) *UpdateService {
	return &UpdateService{
		chatRepo:     chatRepo,
		logRepo:      logRepo,
		settingsRepo: settingsRepo,
		router:       router,
		api:          api,
	}
}

// ProcessUpdate handles one inbound update: authorization, inbound logging,
// then synchronous command dispatch. An unauthorized chat gets the fixed
// rejection reply and nothing else. Duplicate deliveries of the same update
// are tolerated; command handlers are idempotent where state is involved.
func (s *UpdateService) ProcessUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil || update.Message.Text == "" {
		logger.Debug("Ignoring update without message text",
			zap.Int64("update_id", update.UpdateID),
		)
		return nil
	}

	chatID := update.Message.Chat.IDString()
	text := update.Message.Text

	chat, err := s.chatRepo.GetByID(chatID)
	if err != nil {
		logger.Error("Failed to look up chat",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to look up chat: %w", err)
	}

	if chat == nil || !chat.Active {
		return s.rejectUnauthorized(ctx, chatID)
	}

	// Log the inbound message before dispatching it
	category := models.CategoryMessage
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		category = models.CategoryCommand
	}
	if err := s.logRepo.Append(&models.MessageLogEntry{
		ChatID:    chatID,
		Text:      text,
		Category:  category,
		Direction: models.DirectionIncoming,
		Status:    models.StatusReceived,
	}); err != nil {
		logger.Error("Failed to log inbound message",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to log inbound message: %w", err)
	}

	return s.router.Dispatch(ctx, chatID, text)
}

// rejectUnauthorized sends the fixed not-authorized reply and logs it. No
// command execution happens for the update.
func (s *UpdateService) rejectUnauthorized(ctx context.Context, chatID string) error {
	logger.Warn("Rejected update from unauthorized chat",
		zap.String("chat_id", chatID),
		zap.String("event_type", "unauthorized_chat"),
	)

	status := models.StatusSent
	sendErr := s.api.SendMessage(ctx, chatID, unauthorizedReply)
	if sendErr != nil {
		status = models.StatusFailed
	}

	if logErr := s.logRepo.Append(&models.MessageLogEntry{
		ChatID:    chatID,
		Text:      unauthorizedReply,
		Category:  models.CategoryReply,
		Direction: models.DirectionOutgoing,
		Status:    status,
	}); logErr != nil {
		logger.Error("Failed to log rejection reply",
			zap.String("chat_id", chatID),
			zap.Error(logErr),
		)
	}

	// Authorization failure is not an error condition
	return nil
}

// ProcessBatch pulls updates starting after the persisted offset and
// processes them sequentially. The offset is persisted only after the whole
// batch has been attempted, so a crash mid-batch re-delivers the batch
// (at-least-once).
func (s *UpdateService) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load bot settings: %w", err)
	}
	if settings.Mode != models.ModePolling {
		return nil, ErrPollingDisabled
	}

	updates, err := s.api.GetUpdates(ctx, settings.LastUpdateID+1)
	if err != nil {
		logger.Error("Failed to fetch updates", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch updates: %w", err)
	}

	result := &BatchResult{
		Updates:      len(updates),
		LastUpdateID: settings.LastUpdateID,
	}

	maxID := settings.LastUpdateID
	for _, update := range updates {
		if update.UpdateID > maxID {
			maxID = update.UpdateID
		}

		if err := s.ProcessUpdate(ctx, update); err != nil {
			result.Failed++
			logger.Error("Failed to process update",
				zap.Int64("update_id", update.UpdateID),
				zap.Error(err),
			)
			continue
		}
		result.Processed++
	}

	if maxID > settings.LastUpdateID {
		if err := s.settingsRepo.SetLastUpdateID(maxID); err != nil {
			logger.Error("Failed to persist poll offset",
				zap.Int64("last_update_id", maxID),
				zap.Error(err),
			)
			return result, fmt.Errorf("failed to persist poll offset: %w", err)
		}
		result.LastUpdateID = maxID
	}

	logger.Info("Poll batch processed",
		zap.Int("updates", result.Updates),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int64("last_update_id", result.LastUpdateID),
	)

	return result, nil
}
