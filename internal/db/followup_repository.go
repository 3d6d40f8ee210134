package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/models"

	"github.com/google/uuid"
)

// FollowUpRepository defines the interface for follow-up data access,
// including the reminder dispatch outbox.
type FollowUpRepository interface {
	Create(followUp *models.FollowUp) error
	GetByID(id int64) (*models.FollowUp, error)
	DueOn(date string) ([]*models.FollowUp, error)
	MarkReminderSent(ids []int64) error
	CreateDispatch(followUpID int64) (*models.ReminderDispatch, error)
	CompleteDispatch(id string) error
	PendingDispatches() ([]*models.ReminderDispatch, error)
}

// followUpRepository implements FollowUpRepository interface
type followUpRepository struct {
	db *sql.DB
}

// NewFollowUpRepository creates a new FollowUpRepository
func NewFollowUpRepository(db *sql.DB) FollowUpRepository {
	return &followUpRepository{db: db}
}

// Create inserts a follow-up.
func (r *followUpRepository) Create(followUp *models.FollowUp) error {
	if followUp == nil {
		return fmt.Errorf("follow-up cannot be nil")
	}
	if followUp.CustomerName == "" {
		return fmt.Errorf("customer name cannot be empty")
	}
	if followUp.Date == "" {
		return fmt.Errorf("date cannot be empty")
	}

	if followUp.Status == "" {
		followUp.Status = models.FollowUpPending
	}
	if followUp.CreatedAt == 0 {
		followUp.CreatedAt = time.Now().Unix()
	}

	result, err := r.db.Exec(
		`INSERT INTO followups (customer_id, customer_name, date, time, type, notes, location, contact_phone, status, reminder_sent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		followUp.CustomerID,
		followUp.CustomerName,
		followUp.Date,
		followUp.Time,
		followUp.Type,
		followUp.Notes,
		followUp.Location,
		followUp.ContactPhone,
		followUp.Status,
		followUp.ReminderSent,
		followUp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create follow-up: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		followUp.ID = id
	}

	return nil
}

// GetByID retrieves a follow-up. Returns (nil, nil) when it does not exist.
func (r *followUpRepository) GetByID(id int64) (*models.FollowUp, error) {
	if id <= 0 {
		return nil, fmt.Errorf("follow-up ID must be positive")
	}

	followUp := &models.FollowUp{}
	err := r.db.QueryRow(
		`SELECT id, customer_id, customer_name, date, time, type, notes, location, contact_phone, status, reminder_sent, created_at
		 FROM followups WHERE id = ?`,
		id,
	).Scan(
		&followUp.ID,
		&followUp.CustomerID,
		&followUp.CustomerName,
		&followUp.Date,
		&followUp.Time,
		&followUp.Type,
		&followUp.Notes,
		&followUp.Location,
		&followUp.ContactPhone,
		&followUp.Status,
		&followUp.ReminderSent,
		&followUp.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get follow-up: %w", err)
	}

	return followUp, nil
}

// DueOn retrieves pending follow-ups on the given calendar day whose
// reminder has not been sent yet.
func (r *followUpRepository) DueOn(date string) ([]*models.FollowUp, error) {
	if date == "" {
		return nil, fmt.Errorf("date cannot be empty")
	}

	rows, err := r.db.Query(
		`SELECT id, customer_id, customer_name, date, time, type, notes, location, contact_phone, status, reminder_sent, created_at
		 FROM followups
		 WHERE date = ? AND status = ? AND reminder_sent = 0
		 ORDER BY time, id`,
		date, models.FollowUpPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due follow-ups: %w", err)
	}
	defer rows.Close()

	var followUps []*models.FollowUp
	for rows.Next() {
		followUp := &models.FollowUp{}
		err := rows.Scan(
			&followUp.ID,
			&followUp.CustomerID,
			&followUp.CustomerName,
			&followUp.Date,
			&followUp.Time,
			&followUp.Type,
			&followUp.Notes,
			&followUp.Location,
			&followUp.ContactPhone,
			&followUp.Status,
			&followUp.ReminderSent,
			&followUp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan follow-up: %w", err)
		}
		followUps = append(followUps, followUp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follow-ups: %w", err)
	}

	return followUps, nil
}

// MarkReminderSent flips reminder_sent on for the given follow-ups.
func (r *followUpRepository) MarkReminderSent(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`UPDATE followups SET reminder_sent = 1 WHERE id IN (%s)`, strings.Join(placeholders, ", "))
	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to mark reminders sent: %w", err)
	}

	return nil
}

// CreateDispatch writes a pending reminder dispatch intent for a follow-up.
func (r *followUpRepository) CreateDispatch(followUpID int64) (*models.ReminderDispatch, error) {
	if followUpID <= 0 {
		return nil, fmt.Errorf("follow-up ID must be positive")
	}

	now := time.Now().Unix()
	dispatch := &models.ReminderDispatch{
		ID:         uuid.New().String(),
		FollowUpID: followUpID,
		Status:     models.DispatchPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := r.db.Exec(
		`INSERT INTO reminder_dispatches (id, followup_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		dispatch.ID, dispatch.FollowUpID, dispatch.Status, dispatch.CreatedAt, dispatch.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch intent: %w", err)
	}

	return dispatch, nil
}

// CompleteDispatch marks a dispatch intent sent.
func (r *followUpRepository) CompleteDispatch(id string) error {
	if id == "" {
		return fmt.Errorf("dispatch ID cannot be empty")
	}

	result, err := r.db.Exec(
		`UPDATE reminder_dispatches SET status = ?, updated_at = ? WHERE id = ?`,
		models.DispatchSent, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete dispatch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("dispatch not found")
	}

	return nil
}

// PendingDispatches retrieves dispatch intents that were written but never
// confirmed, for inspection after a mid-run failure.
func (r *followUpRepository) PendingDispatches() ([]*models.ReminderDispatch, error) {
	rows, err := r.db.Query(
		`SELECT id, followup_id, status, created_at, updated_at
		 FROM reminder_dispatches WHERE status = ? ORDER BY created_at`,
		models.DispatchPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending dispatches: %w", err)
	}
	defer rows.Close()

	var dispatches []*models.ReminderDispatch
	for rows.Next() {
		dispatch := &models.ReminderDispatch{}
		err := rows.Scan(&dispatch.ID, &dispatch.FollowUpID, &dispatch.Status, &dispatch.CreatedAt, &dispatch.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		dispatches = append(dispatches, dispatch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dispatches: %w", err)
	}

	return dispatches, nil
}
