package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reminisce-ai/reminisce/internal/core/model"
)

// SQLiteStore persists events, reminders, and conversation history in a local
// sqlite database. Timestamps are stored as RFC3339Nano strings in UTC.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies migrations.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	dsn := "file:" + dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertEvent(ctx context.Context, ev *model.Event) error {
	if ev.ID == "" {
		return fmt.Errorf("insert event: empty id")
	}
	query := `INSERT INTO events (id, user_id, description, category, people, time_reference, event_date, reminder_date, source_message, reminded, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.UserID, ev.Description, string(ev.Category),
		strings.Join(ev.People, ","), ev.TimeReference,
		timeToText(ev.EventDate), timeToText(ev.ReminderDate),
		ev.SourceMessage, boolToInt(ev.Reminded),
		ev.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListDueEvents(ctx context.Context, userID string, from, to time.Time) ([]model.Event, error) {
	query := `SELECT id, user_id, description, category, people, time_reference, event_date, reminder_date, source_message, reminded, created_at
	          FROM events
	          WHERE user_id = ? AND reminded = 0 AND reminder_date IS NOT NULL AND reminder_date >= ? AND reminder_date < ?
	          ORDER BY reminder_date ASC`
	rows, err := s.db.QueryContext(ctx, query, userID,
		from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("list due events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLiteStore) ListEvents(ctx context.Context, userID string, category model.Category, limit int) ([]model.Event, error) {
	query := `SELECT id, user_id, description, category, people, time_reference, event_date, reminder_date, source_message, reminded, created_at
	          FROM events WHERE user_id = ?`
	args := []any{userID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLiteStore) MarkReminded(ctx context.Context, userID, eventID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE events SET reminded = 1 WHERE user_id = ? AND id = ?`, userID, eventID)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark reminded: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark reminded: event %s not found", eventID)
	}
	return nil
}

func (s *SQLiteStore) InsertReminder(ctx context.Context, r *model.Reminder) error {
	if r.ID == "" {
		return fmt.Errorf("insert reminder: empty id")
	}
	query := `INSERT INTO reminders (id, user_id, task, time, status, source_event_id, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID, r.Task, r.Time, string(r.Status), r.SourceEventID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListReminders(ctx context.Context, userID string) ([]model.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, task, time, status, source_event_id, created_at FROM reminders WHERE user_id = ? ORDER BY created_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (s *SQLiteStore) FlipNewToPending(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET status = ? WHERE user_id = ? AND status = ?`,
		string(model.StatusPending), userID, string(model.StatusNew))
	if err != nil {
		return fmt.Errorf("flip new to pending: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRemindersByStatus(ctx context.Context, userID string, status model.ReminderStatus) ([]model.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, task, time, status, source_event_id, created_at FROM reminders WHERE user_id = ? AND status = ? ORDER BY created_at ASC`,
		userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list reminders by status: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (s *SQLiteStore) UpdateReminderStatus(ctx context.Context, userID, id string, status model.ReminderStatus) error {
	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM reminders WHERE user_id = ? AND id = ?`, userID, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReminderNotFound
	}
	if err != nil {
		return fmt.Errorf("update reminder status: %w", err)
	}
	if !model.CanTransition(model.ReminderStatus(current), status) {
		return ErrInvalidTransition
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE reminders SET status = ? WHERE user_id = ? AND id = ?`,
		string(status), userID, id)
	if err != nil {
		return fmt.Errorf("update reminder status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteReminder(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reminder: rows affected: %w", err)
	}
	if n == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, userID, role, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (user_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		userID, role, text, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, userID string, limit int) ([]string, error) {
	query := `SELECT role, text FROM messages WHERE user_id = ? ORDER BY id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var reversed []string
	for rows.Next() {
		var role, text string
		if err := rows.Scan(&role, &text); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		reversed = append(reversed, fmt.Sprintf("%s: %s", role, text))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}

	out := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		out = append(out, reversed[i])
	}
	return out, nil
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var category, people string
		var eventDate, reminderDate sql.NullString
		var reminded int
		var createdAt string
		err := rows.Scan(&ev.ID, &ev.UserID, &ev.Description, &category, &people,
			&ev.TimeReference, &eventDate, &reminderDate, &ev.SourceMessage, &reminded, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Category = model.Category(category)
		if people != "" {
			ev.People = strings.Split(people, ",")
		}
		ev.Reminded = reminded != 0
		if ev.EventDate, err = textToTime(eventDate); err != nil {
			return nil, fmt.Errorf("scan event: parse event_date: %w", err)
		}
		if ev.ReminderDate, err = textToTime(reminderDate); err != nil {
			return nil, fmt.Errorf("scan event: parse reminder_date: %w", err)
		}
		if ev.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("scan event: parse created_at: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan events: rows: %w", err)
	}
	return events, nil
}

func scanReminders(rows *sql.Rows) ([]model.Reminder, error) {
	var reminders []model.Reminder
	for rows.Next() {
		var r model.Reminder
		var status, createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Task, &r.Time, &status, &r.SourceEventID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		r.Status = model.ReminderStatus(status)
		var err error
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: parse created_at: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan reminders: rows: %w", err)
	}
	return reminders, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeToText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func textToTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
