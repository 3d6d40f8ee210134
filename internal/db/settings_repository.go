package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/models"
)

// settingsRowID is the fixed id of the single bot settings row. Callers
// never see it; Get materialises the row on first access.
const settingsRowID = 1

// SettingsRepository defines the interface for the singleton bot settings
type SettingsRepository interface {
	Get() (*models.BotSettings, error)
	Update(settings *models.BotSettings) error
	SetLastUpdateID(id int64) error
}

// settingsRepository implements SettingsRepository interface
type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves the settings row, creating it in disabled mode if it does
// not exist yet.
func (r *settingsRepository) Get() (*models.BotSettings, error) {
	settings := &models.BotSettings{}
	err := r.db.QueryRow(
		`SELECT id, mode, webhook_url, webhook_secret, last_update_id, updated_at
		 FROM bot_settings WHERE id = ?`,
		settingsRowID,
	).Scan(
		&settings.ID,
		&settings.Mode,
		&settings.WebhookURL,
		&settings.WebhookSecret,
		&settings.LastUpdateID,
		&settings.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		settings = &models.BotSettings{
			ID:        settingsRowID,
			Mode:      models.ModeDisabled,
			UpdatedAt: time.Now().Unix(),
		}
		_, err = r.db.Exec(
			`INSERT INTO bot_settings (id, mode, webhook_url, webhook_secret, last_update_id, updated_at)
			 VALUES (?, ?, '', '', 0, ?)`,
			settingsRowID, settings.Mode, settings.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return settings, nil
}

// Update persists the full settings row.
func (r *settingsRepository) Update(settings *models.BotSettings) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	if !models.ValidMode(settings.Mode) {
		return fmt.Errorf("invalid mode: %s", settings.Mode)
	}

	settings.UpdatedAt = time.Now().Unix()

	result, err := r.db.Exec(
		`UPDATE bot_settings SET mode = ?, webhook_url = ?, webhook_secret = ?, last_update_id = ?, updated_at = ?
		 WHERE id = ?`,
		settings.Mode,
		settings.WebhookURL,
		settings.WebhookSecret,
		settings.LastUpdateID,
		settings.UpdatedAt,
		settingsRowID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("settings not found")
	}

	return nil
}

// SetLastUpdateID persists only the poll offset.
func (r *settingsRepository) SetLastUpdateID(id int64) error {
	if id < 0 {
		return fmt.Errorf("update ID cannot be negative")
	}

	result, err := r.db.Exec(
		`UPDATE bot_settings SET last_update_id = ?, updated_at = ? WHERE id = ?`,
		id, time.Now().Unix(), settingsRowID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last update ID: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("settings not found")
	}

	return nil
}
