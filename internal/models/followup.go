package models

import "time"

// Follow-up statuses
const (
	FollowUpPending = "pending"
	FollowUpDone    = "done"
)

// FollowUp is a scheduled customer contact created by sales staff. The
// reminder job flips ReminderSent from false to true exactly once when a
// reminder has been dispatched for it.
type FollowUp struct {
	ID           int64  `json:"id"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"` // YYYY-MM-DD
	Time         string `json:"time"`
	Type         string `json:"type"`
	Notes        string `json:"notes,omitempty"`
	Location     string `json:"location,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Status       string `json:"status"`
	ReminderSent bool   `json:"reminder_sent"`
	CreatedAt    int64  `json:"created_at"`
}

// Reminder dispatch intent statuses
const (
	DispatchPending = "pending"
	DispatchSent    = "sent"
)

// ReminderDispatch is the outbox intent row for a follow-up reminder:
// written before the sends, confirmed after, so a mid-run failure leaves a
// queryable pending intent instead of a silent duplicate-send state.
type ReminderDispatch struct {
	ID         string `json:"id"`
	FollowUpID int64  `json:"followup_id"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// CreateFollowUpRequest is the request body for scheduling a follow-up
type CreateFollowUpRequest struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time"`
	Type         string `json:"type"`
	Notes        string `json:"notes"`
	Location     string `json:"location"`
	ContactPhone string `json:"contact_phone"`
}

// ToFollowUp converts the request into a pending follow-up.
func (r *CreateFollowUpRequest) ToFollowUp() *FollowUp {
	return &FollowUp{
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Date:         r.Date,
		Time:         r.Time,
		Type:         r.Type,
		Notes:        r.Notes,
		Location:     r.Location,
		ContactPhone: r.ContactPhone,
		Status:       FollowUpPending,
		ReminderSent: false,
		CreatedAt:    time.Now().Unix(),
	}
}
