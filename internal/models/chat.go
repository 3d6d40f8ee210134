package models

import "time"

// Chat represents a Telegram conversation endpoint authorized to talk to the bot.
// The ID is the provider-assigned chat id. Chats are never hard-deleted;
// revoking access flips Active off.
type Chat struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"created_at"` // Unix timestamp
	UpdatedAt int64  `json:"updated_at"` // Unix timestamp

	// Loaded alongside the chat, not stored in the chats table
	Preferences *NotificationPreference `json:"preferences,omitempty"`
}

// NotificationPreference holds the per-chat subscription flags, one row per chat.
type NotificationPreference struct {
	ChatID          string `json:"chat_id"`
	ServiceCalls    bool   `json:"service_calls"`
	FollowUps       bool   `json:"follow_ups"`
	InventoryAlerts bool   `json:"inventory_alerts"`
	UpdatedAt       int64  `json:"updated_at"`
}

// DefaultPreferences returns the subscriptions a newly authorized chat starts with.
func DefaultPreferences(chatID string) *NotificationPreference {
	return &NotificationPreference{
		ChatID:          chatID,
		ServiceCalls:    true,
		FollowUps:       true,
		InventoryAlerts: false,
		UpdatedAt:       time.Now().Unix(),
	}
}

// NewChat creates an active chat with default timestamps.
func NewChat(id, name string) *Chat {
	now := time.Now().Unix()
	return &Chat{
		ID:        id,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AuthorizeChatRequest is the request body for authorizing a chat
type AuthorizeChatRequest struct {
	ChatID string `json:"chat_id" binding:"required"`
	Name   string `json:"name"`
}

// SetActiveRequest is the request body for toggling a chat's active flag
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// UpdatePreferenceRequest toggles a single subscription field on a chat
type UpdatePreferenceRequest struct {
	Field string `json:"field" binding:"required"`
	Value *bool  `json:"value" binding:"required"`
}
