package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the SQL connection and owns schema bootstrap.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the SQLite database at dsn and ensures the schema exists.
func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Verify we can actually connect to the database
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	if err := createTables(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	return &Database{db: db}, nil
}

// GetDB exposes the underlying connection for repositories.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return errors.New("database is nil")
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Schema is the full DDL for the bot relay tables. Shared with the test
// helper so tests exercise the same schema the server runs on.
const Schema = `
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notification_preferences (
		chat_id TEXT PRIMARY KEY,
		service_calls BOOLEAN NOT NULL DEFAULT 1,
		follow_ups BOOLEAN NOT NULL DEFAULT 1,
		inventory_alerts BOOLEAN NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS message_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id TEXT NOT NULL,
		text TEXT NOT NULL,
		category TEXT NOT NULL,
		direction TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bot_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		mode TEXT NOT NULL DEFAULT 'disabled',
		webhook_url TEXT NOT NULL DEFAULT '',
		webhook_secret TEXT NOT NULL DEFAULT '',
		last_update_id INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS followups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		reminder_sent BOOLEAN NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reminder_dispatches (
		id TEXT PRIMARY KEY,
		followup_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (followup_id) REFERENCES followups(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_message_log_chat_id ON message_log(chat_id);
	CREATE INDEX IF NOT EXISTS idx_message_log_status ON message_log(status);
	CREATE INDEX IF NOT EXISTS idx_followups_date ON followups(date);
	CREATE INDEX IF NOT EXISTS idx_reminder_dispatches_status ON reminder_dispatches(status);
	CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone);
`
