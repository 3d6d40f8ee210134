package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/models"
)

// MessageLogRepository defines the interface for the append-only delivery
// log. No update or delete operations exist by design.
type MessageLogRepository interface {
	Append(entry *models.MessageLogEntry) error
	CountByStatus(status string) (int, error)
	ListByChat(chatID string, limit int) ([]*models.MessageLogEntry, error)
}

// messageLogRepository implements MessageLogRepository interface
type messageLogRepository struct {
	db *sql.DB
}

// NewMessageLogRepository creates a new MessageLogRepository
func NewMessageLogRepository(db *sql.DB) MessageLogRepository {
	return &messageLogRepository{db: db}
}

// Append writes one audit record. Text is truncated to the log cap.
func (r *messageLogRepository) Append(entry *models.MessageLogEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.ChatID == "" {
		return fmt.Errorf("chat ID cannot be empty")
	}

	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	result, err := r.db.Exec(
		`INSERT INTO message_log (chat_id, text, category, direction, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ChatID,
		models.TruncateLogText(entry.Text),
		entry.Category,
		entry.Direction,
		entry.Status,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}

	return nil
}

// CountByStatus returns the number of log rows with the given status.
func (r *messageLogRepository) CountByStatus(status string) (int, error) {
	if status == "" {
		return 0, fmt.Errorf("status cannot be empty")
	}

	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM message_log WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count log entries: %w", err)
	}

	return count, nil
}

// ListByChat retrieves the most recent log rows for a chat.
func (r *messageLogRepository) ListByChat(chatID string, limit int) ([]*models.MessageLogEntry, error) {
	if chatID == "" {
		return nil, fmt.Errorf("chat ID cannot be empty")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(
		`SELECT id, chat_id, text, category, direction, status, created_at
		 FROM message_log WHERE chat_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.MessageLogEntry
	for rows.Next() {
		entry := &models.MessageLogEntry{}
		err := rows.Scan(&entry.ID, &entry.ChatID, &entry.Text, &entry.Category, &entry.Direction, &entry.Status, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log entries: %w", err)
	}

	return entries, nil
}
