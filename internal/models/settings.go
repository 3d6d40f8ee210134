package models

// Bot update-delivery modes. Exactly one is in effect at a time; switching
// to webhook or polling implicitly leaves the other.
const (
	ModeWebhook  = "webhook"
	ModePolling  = "polling"
	ModeDisabled = "disabled"
)

// ValidMode reports whether mode is one of the defined delivery modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeWebhook, ModePolling, ModeDisabled:
		return true
	}
	return false
}

// BotSettings is the single logical configuration row for the bot. The
// repository materialises it on first access; callers never deal with the
// row id.
type BotSettings struct {
	ID            int64  `json:"-"`
	Mode          string `json:"mode"`
	WebhookURL    string `json:"webhook_url,omitempty"`
	WebhookSecret string `json:"-"` // never serialized to clients
	LastUpdateID  int64  `json:"last_update_id"`
	UpdatedAt     int64  `json:"updated_at"`
}

// SetModeRequest is the request body for switching the delivery mode
type SetModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// SetWebhookRequest is the request body for registering a webhook
type SetWebhookRequest struct {
	URL string `json:"url" binding:"required"`
}
