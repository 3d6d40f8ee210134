package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/models"
)

// ChatRepository defines the interface for chat and preference data access
type ChatRepository interface {
	Create(chat *models.Chat) error
	GetByID(id string) (*models.Chat, error)
	List(activeOnly bool) ([]*models.Chat, error)
	SetActive(id string, active bool) error
	GetPreferences(chatID string) (*models.NotificationPreference, error)
	UpdatePreference(chatID, field string, value bool) error
	ListSubscribed(kind string) ([]*models.Chat, error)
}

// chatRepository implements ChatRepository interface
type chatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *sql.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Create inserts a chat together with its default notification preferences
// in a single transaction.
func (r *chatRepository) Create(chat *models.Chat) error {
	if chat == nil {
		return fmt.Errorf("chat cannot be nil")
	}
	if chat.ID == "" {
		return fmt.Errorf("chat ID cannot be empty")
	}

	now := time.Now().Unix()
	if chat.CreatedAt == 0 {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now

	prefs := chat.Preferences
	if prefs == nil {
		prefs = models.DefaultPreferences(chat.ID)
		chat.Preferences = prefs
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO chats (id, name, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.Name, chat.Active, chat.CreatedAt, chat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO notification_preferences (chat_id, service_calls, follow_ups, inventory_alerts, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		prefs.ChatID, prefs.ServiceCalls, prefs.FollowUps, prefs.InventoryAlerts, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create preferences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat creation: %w", err)
	}

	return nil
}

// GetByID retrieves a chat with its preferences. Returns (nil, nil) when
// the chat does not exist.
func (r *chatRepository) GetByID(id string) (*models.Chat, error) {
	if id == "" {
		return nil, fmt.Errorf("chat ID cannot be empty")
	}

	query := `
		SELECT c.id, c.name, c.active, c.created_at, c.updated_at,
			p.service_calls, p.follow_ups, p.inventory_alerts, p.updated_at
		FROM chats c
		LEFT JOIN notification_preferences p ON p.chat_id = c.id
		WHERE c.id = ?
	`

	chat := &models.Chat{}
	var serviceCalls, followUps, inventoryAlerts sql.NullBool
	var prefsUpdatedAt sql.NullInt64

	err := r.db.QueryRow(query, id).Scan(
		&chat.ID,
		&chat.Name,
		&chat.Active,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&serviceCalls,
		&followUps,
		&inventoryAlerts,
		&prefsUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat by ID: %w", err)
	}

	if serviceCalls.Valid {
		chat.Preferences = &models.NotificationPreference{
			ChatID:          chat.ID,
			ServiceCalls:    serviceCalls.Bool,
			FollowUps:       followUps.Bool,
			InventoryAlerts: inventoryAlerts.Bool,
			UpdatedAt:       prefsUpdatedAt.Int64,
		}
	}

	return chat, nil
}

// List retrieves all chats, optionally only the active ones.
func (r *chatRepository) List(activeOnly bool) ([]*models.Chat, error) {
	query := `
		SELECT c.id, c.name, c.active, c.created_at, c.updated_at,
			p.service_calls, p.follow_ups, p.inventory_alerts, p.updated_at
		FROM chats c
		LEFT JOIN notification_preferences p ON p.chat_id = c.id
	`
	if activeOnly {
		query += ` WHERE c.active = 1`
	}
	query += ` ORDER BY c.created_at`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	return scanChats(rows)
}

// SetActive toggles the soft-delete flag on a chat.
func (r *chatRepository) SetActive(id string, active bool) error {
	if id == "" {
		return fmt.Errorf("chat ID cannot be empty")
	}

	result, err := r.db.Exec(
		`UPDATE chats SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("chat not found")
	}

	return nil
}

// GetPreferences retrieves the preference row for a chat. Returns
// (nil, nil) when no row exists.
func (r *chatRepository) GetPreferences(chatID string) (*models.NotificationPreference, error) {
	if chatID == "" {
		return nil, fmt.Errorf("chat ID cannot be empty")
	}

	prefs := &models.NotificationPreference{}
	err := r.db.QueryRow(
		`SELECT chat_id, service_calls, follow_ups, inventory_alerts, updated_at
		 FROM notification_preferences WHERE chat_id = ?`,
		chatID,
	).Scan(&prefs.ChatID, &prefs.ServiceCalls, &prefs.FollowUps, &prefs.InventoryAlerts, &prefs.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return prefs, nil
}

// UpdatePreference toggles one subscription field. Field names match the
// JSON field names of NotificationPreference.
func (r *chatRepository) UpdatePreference(chatID, field string, value bool) error {
	if chatID == "" {
		return fmt.Errorf("chat ID cannot be empty")
	}

	var column string
	switch field {
	case "service_calls":
		column = "service_calls"
	case "follow_ups":
		column = "follow_ups"
	case "inventory_alerts":
		column = "inventory_alerts"
	default:
		return fmt.Errorf("unknown preference field: %s", field)
	}

	result, err := r.db.Exec(
		fmt.Sprintf(`UPDATE notification_preferences SET %s = ?, updated_at = ? WHERE chat_id = ?`, column),
		value, time.Now().Unix(), chatID,
	)
	if err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("preferences not found")
	}

	return nil
}

// ListSubscribed retrieves active chats whose preference bit for the given
// notification kind is set. new_customer shares the service-call bit.
func (r *chatRepository) ListSubscribed(kind string) ([]*models.Chat, error) {
	var column string
	switch kind {
	case models.KindServiceCall, models.KindNewCustomer:
		column = "service_calls"
	case models.KindFollowUp:
		column = "follow_ups"
	case models.KindInventoryAlert:
		column = "inventory_alerts"
	default:
		return nil, fmt.Errorf("unknown notification kind: %s", kind)
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.name, c.active, c.created_at, c.updated_at,
			p.service_calls, p.follow_ups, p.inventory_alerts, p.updated_at
		FROM chats c
		INNER JOIN notification_preferences p ON p.chat_id = c.id
		WHERE c.active = 1 AND p.%s = 1
		ORDER BY c.created_at
	`, column)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed chats: %w", err)
	}
	defer rows.Close()

	return scanChats(rows)
}

func scanChats(rows *sql.Rows) ([]*models.Chat, error) {
	var chats []*models.Chat
	for rows.Next() {
		chat := &models.Chat{}
		var serviceCalls, followUps, inventoryAlerts sql.NullBool
		var prefsUpdatedAt sql.NullInt64

		err := rows.Scan(
			&chat.ID,
			&chat.Name,
			&chat.Active,
			&chat.CreatedAt,
			&chat.UpdatedAt,
			&serviceCalls,
			&followUps,
			&inventoryAlerts,
			&prefsUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}

		if serviceCalls.Valid {
			chat.Preferences = &models.NotificationPreference{
				ChatID:          chat.ID,
				ServiceCalls:    serviceCalls.Bool,
				FollowUps:       followUps.Bool,
				InventoryAlerts: inventoryAlerts.Bool,
				UpdatedAt:       prefsUpdatedAt.Int64,
			}
		}

		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return chats, nil
}
