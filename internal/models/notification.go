package models

import "encoding/json"

// Notification kinds. NewCustomer shares the service-call preference bit;
// it has no subscription flag of its own.
const (
	KindServiceCall    = "service_call"
	KindFollowUp       = "follow_up"
	KindInventoryAlert = "inventory_alert"
	KindNewCustomer    = "new_customer"
)

// ValidKind reports whether kind is a defined notification kind.
func ValidKind(kind string) bool {
	switch kind {
	case KindServiceCall, KindFollowUp, KindInventoryAlert, KindNewCustomer:
		return true
	}
	return false
}

// ServiceCallPayload carries the fields of a service-call notification.
// Empty fields render as fallback text, never as an error.
type ServiceCallPayload struct {
	CustomerName string `json:"customer_name"`
	MachineModel string `json:"machine_model"`
	Issue        string `json:"issue"`
	Location     string `json:"location"`
	Engineer     string `json:"engineer"`
	Phone        string `json:"phone"`
}

// FollowUpPayload carries the fields of a follow-up reminder notification.
type FollowUpPayload struct {
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Type         string `json:"type"`
	Notes        string `json:"notes"`
	Location     string `json:"location"`
	ContactPhone string `json:"contact_phone"`
}

// InventoryAlertPayload carries the fields of a low-stock alert.
type InventoryAlertPayload struct {
	ItemName     string `json:"item_name"`
	CurrentStock *int   `json:"current_stock"`
	MinimumStock *int   `json:"minimum_stock"`
	Warehouse    string `json:"warehouse"`
}

// NewCustomerPayload carries the fields of a new-customer notification.
type NewCustomerPayload struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// NotifyRequest is the request body for dispatching a notification. The
// payload shape depends on the kind and is decoded by the notifier.
type NotifyRequest struct {
	Kind    string          `json:"kind" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

// RecipientResult is the delivery outcome for one chat.
type RecipientResult struct {
	ChatID  string `json:"chat_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NotifyResult aggregates per-chat outcomes for one notification. Zero
// eligible recipients is a success with NoRecipients set, not an error.
type NotifyResult struct {
	Kind         string            `json:"kind"`
	NoRecipients bool              `json:"no_recipients"`
	Recipients   []RecipientResult `json:"recipients"`
}

// SentCount returns the number of successful deliveries.
func (r *NotifyResult) SentCount() int {
	n := 0
	for _, rec := range r.Recipients {
		if rec.Success {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed deliveries.
func (r *NotifyResult) FailedCount() int {
	return len(r.Recipients) - r.SentCount()
}
