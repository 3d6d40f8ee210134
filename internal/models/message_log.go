package models

// Message directions
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Delivery statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusError    = "error"
	StatusReceived = "received"
)

// Message categories
const (
	CategoryCommand      = "command"
	CategoryMessage      = "message"
	CategoryNotification = "notification"
	CategoryReply        = "reply"
)

// MaxLoggedTextRunes caps the message text stored in the audit log.
const MaxLoggedTextRunes = 500

// MessageLogEntry is one immutable audit record per message transmission
// attempt, inbound or outbound. Rows are append-only.
type MessageLogEntry struct {
	ID        int64  `json:"id"`
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	Direction string `json:"direction"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// TruncateLogText trims text to the audit log cap.
func TruncateLogText(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxLoggedTextRunes {
		return text
	}
	return string(runes[:MaxLoggedTextRunes])
}
