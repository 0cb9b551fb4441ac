package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version of the sqlite database.
const SchemaVersion = 1

// Migrate ensures the sqlite schema exists and is at SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			people TEXT NULL,
			time_reference TEXT NULL,
			event_date TEXT NULL,
			reminder_date TEXT NULL,
			source_message TEXT NULL,
			reminded INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create events table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			task TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL,
			source_event_id TEXT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create reminders table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create messages table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_events_user_reminder ON events(user_id, reminder_date, reminded);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_events_user_reminder: %w", err)
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_reminders_user_status ON reminders(user_id, status);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_reminders_user_status: %w", err)
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, id);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_messages_user: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}
