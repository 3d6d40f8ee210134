package services

import (
	"errors"
	"fmt"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrChatNotFound indicates the chat does not exist
	ErrChatNotFound = errors.New("chat not found")

	// ErrUnknownPreference indicates an unrecognized preference field
	ErrUnknownPreference = errors.New("unknown preference field")
)

// preferenceFields are the toggleable subscription flags, keyed by their
// JSON field names.
var preferenceFields = map[string]bool{
	"service_calls":    true,
	"follow_ups":       true,
	"inventory_alerts": true,
}

// ChatService provides business logic for chat authorization and
// notification preferences.
type ChatService struct {
	chatRepo db.ChatRepository
}

// NewChatService creates a new ChatService instance
func NewChatService(chatRepo db.ChatRepository) *ChatService {
	return &ChatService{chatRepo: chatRepo}
}

// Authorize creates a chat with default preferences. Authorizing an already
// known chat is a no-op returning the existing record, so replayed requests
// cannot corrupt preference state.
func (s *ChatService) Authorize(chatID, name string) (*models.Chat, error) {
	if chatID == "" {
		return nil, errors.New("chat ID cannot be empty")
	}

	existing, err := s.chatRepo.GetByID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to check chat: %w", err)
	}
	if existing != nil {
		logger.Debug("Chat already authorized", zap.String("chat_id", chatID))
		return existing, nil
	}

	chat := models.NewChat(chatID, name)
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	logger.Info("Chat authorized",
		zap.String("chat_id", chatID),
		zap.String("event_type", "chat_authorized"),
	)

	return chat, nil
}

// SetActive toggles a chat's active flag. Chats are never hard-deleted.
func (s *ChatService) SetActive(chatID string, active bool) error {
	if chatID == "" {
		return errors.New("chat ID cannot be empty")
	}

	chat, err := s.chatRepo.GetByID(chatID)
	if err != nil {
		return fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil {
		return ErrChatNotFound
	}

	if err := s.chatRepo.SetActive(chatID, active); err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}

	logger.Info("Chat active flag changed",
		zap.String("chat_id", chatID),
		zap.Bool("active", active),
		zap.String("event_type", "chat_active_changed"),
	)

	return nil
}

// UpdatePreference toggles a single subscription field on a chat.
func (s *ChatService) UpdatePreference(chatID, field string, value bool) error {
	if chatID == "" {
		return errors.New("chat ID cannot be empty")
	}
	if !preferenceFields[field] {
		return fmt.Errorf("%w: %s", ErrUnknownPreference, field)
	}

	chat, err := s.chatRepo.GetByID(chatID)
	if err != nil {
		return fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil {
		return ErrChatNotFound
	}

	if err := s.chatRepo.UpdatePreference(chatID, field, value); err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}

	logger.Info("Notification preference changed",
		zap.String("chat_id", chatID),
		zap.String("field", field),
		zap.Bool("value", value),
		zap.String("event_type", "preference_changed"),
	)

	return nil
}

// List retrieves all chats with their preferences.
func (s *ChatService) List() ([]*models.Chat, error) {
	chats, err := s.chatRepo.List(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}
