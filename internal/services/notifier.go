package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/internal/telegram"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"go.uber.org/zap"
)

// Fallback placeholder text for absent payload fields. A missing field never
// fails a notification.
const (
	FallbackUnknown      = "Unknown"
	FallbackNotSpecified = "Not specified"
)

var (
	// ErrUnknownKind indicates an unrecognized notification kind
	ErrUnknownKind = errors.New("unknown notification kind")

	// ErrInvalidPayload indicates the payload could not be decoded for its kind
	ErrInvalidPayload = errors.New("invalid notification payload")
)

// TelegramAPI is the slice of the Telegram client the services depend on.
type TelegramAPI interface {
	SendMessage(ctx context.Context, chatID, text string) error
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SetWebhook(ctx context.Context, url, secret string) error
	DeleteWebhook(ctx context.Context) error
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// NotifierService formats domain events and delivers them to subscribed chats.
type NotifierService struct {
	chatRepo db.ChatRepository
	logRepo  db.MessageLogRepository
	api      TelegramAPI
}

// NewNotifierService creates a new NotifierService instance
func NewNotifierService(chatRepo db.ChatRepository, logRepo db.MessageLogRepository, api TelegramAPI) *NotifierService {
	return &NotifierService{
		chatRepo: chatRepo,
		logRepo:  logRepo,
		api:      api,
	}
}

// Notify formats the payload for the given kind and sends it to every
// active chat subscribed to that kind. Zero subscribers is a success with
// NoRecipients set. Each send attempt, success or failure, produces exactly
// one message log row.
func (s *NotifierService) Notify(ctx context.Context, kind string, payload json.RawMessage) (*models.NotifyResult, error) {
	text, err := FormatNotification(kind, payload)
	if err != nil {
		return nil, err
	}

	return s.deliver(ctx, kind, text)
}

// NotifyFollowUp sends a follow-up reminder built from a stored follow-up,
// using the follow-up preference bit.
func (s *NotifierService) NotifyFollowUp(ctx context.Context, followUp *models.FollowUp) (*models.NotifyResult, error) {
	if followUp == nil {
		return nil, errors.New("follow-up cannot be nil")
	}

	text := formatFollowUp(&models.FollowUpPayload{
		CustomerName: followUp.CustomerName,
		Date:         followUp.Date,
		Time:         followUp.Time,
		Type:         followUp.Type,
		Notes:        followUp.Notes,
		Location:     followUp.Location,
		ContactPhone: followUp.ContactPhone,
	})

	return s.deliver(ctx, models.KindFollowUp, text)
}

// deliver sends text to every chat subscribed to kind, independently per
// chat, and logs each attempt.
func (s *NotifierService) deliver(ctx context.Context, kind, text string) (*models.NotifyResult, error) {
	chats, err := s.chatRepo.ListSubscribed(kind)
	if err != nil {
		logger.Error("Failed to load subscribed chats",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to load subscribed chats: %w", err)
	}

	result := &models.NotifyResult{Kind: kind}

	if len(chats) == 0 {
		result.NoRecipients = true
		logger.Info("No chats configured for notification",
			zap.String("kind", kind),
		)
		return result, nil
	}

	for _, chat := range chats {
		recipient := models.RecipientResult{ChatID: chat.ID}
		status := models.StatusSent

		if sendErr := s.api.SendMessage(ctx, chat.ID, text); sendErr != nil {
			recipient.Success = false
			recipient.Error = sendErr.Error()
			status = models.StatusFailed
			logger.Warn("Notification send failed",
				zap.String("kind", kind),
				zap.String("chat_id", chat.ID),
				zap.String("event_type", "notification_send_failed"),
				zap.Error(sendErr),
			)
		} else {
			recipient.Success = true
		}

		if logErr := s.logRepo.Append(&models.MessageLogEntry{
			ChatID:    chat.ID,
			Text:      text,
			Category:  models.CategoryNotification,
			Direction: models.DirectionOutgoing,
			Status:    status,
		}); logErr != nil {
			logger.Error("Failed to log notification attempt",
				zap.String("chat_id", chat.ID),
				zap.Error(logErr),
			)
		}

		result.Recipients = append(result.Recipients, recipient)
	}

	logger.Info("Notification dispatched",
		zap.String("kind", kind),
		zap.Int("recipients", len(result.Recipients)),
		zap.Int("sent", result.SentCount()),
		zap.Int("failed", result.FailedCount()),
	)

	return result, nil
}

// FormatNotification renders the fixed template for a kind. Absent payload
// fields render as fallback text.
func FormatNotification(kind string, payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	switch kind {
	case models.KindServiceCall:
		var p models.ServiceCallPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return formatServiceCall(&p), nil
	case models.KindFollowUp:
		var p models.FollowUpPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return formatFollowUp(&p), nil
	case models.KindInventoryAlert:
		var p models.InventoryAlertPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return formatInventoryAlert(&p), nil
	case models.KindNewCustomer:
		var p models.NewCustomerPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return formatNewCustomer(&p), nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func formatServiceCall(p *models.ServiceCallPayload) string {
	return fmt.Sprintf(
		"*New Service Call*\nCustomer: %s\nMachine: %s\nIssue: %s\nLocation: %s\nEngineer: %s\nPhone: %s",
		orFallback(p.CustomerName, FallbackUnknown),
		orFallback(p.MachineModel, FallbackUnknown),
		orFallback(p.Issue, FallbackNotSpecified),
		orFallback(p.Location, FallbackNotSpecified),
		orFallback(p.Engineer, "Unassigned"),
		orFallback(p.Phone, FallbackNotSpecified),
	)
}

func formatFollowUp(p *models.FollowUpPayload) string {
	return fmt.Sprintf(
		"*Follow-up Reminder*\nCustomer: %s\nDate: %s at %s\nType: %s\nLocation: %s\nContact: %s\nNotes: %s",
		orFallback(p.CustomerName, FallbackUnknown),
		orFallback(p.Date, FallbackNotSpecified),
		orFallback(p.Time, FallbackNotSpecified),
		orFallback(p.Type, FallbackNotSpecified),
		orFallback(p.Location, FallbackNotSpecified),
		orFallback(p.ContactPhone, FallbackNotSpecified),
		orFallback(p.Notes, "None"),
	)
}

func formatInventoryAlert(p *models.InventoryAlertPayload) string {
	return fmt.Sprintf(
		"*Low Inventory Alert*\nItem: %s\nCurrent stock: %s\nMinimum stock: %s\nWarehouse: %s",
		orFallback(p.ItemName, FallbackUnknown),
		orIntFallback(p.CurrentStock),
		orIntFallback(p.MinimumStock),
		orFallback(p.Warehouse, FallbackNotSpecified),
	)
}

func formatNewCustomer(p *models.NewCustomerPayload) string {
	return fmt.Sprintf(
		"*New Customer Added*\nName: %s\nPhone: %s\nLocation: %s",
		orFallback(p.Name, FallbackUnknown),
		orFallback(p.Phone, FallbackNotSpecified),
		orFallback(p.Location, FallbackNotSpecified),
	)
}

func orFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orIntFallback(value *int) string {
	if value == nil {
		return FallbackUnknown
	}
	return fmt.Sprintf("%d", *value)
}
