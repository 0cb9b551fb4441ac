package store

import (
	"context"
	"errors"
	"time"

	"github.com/reminisce-ai/reminisce/internal/core/model"
)

// ErrReminderNotFound is returned when a reminder does not exist for the user.
var ErrReminderNotFound = errors.New("reminder not found")

// ErrInvalidTransition is returned when a status change is not allowed by the
// reminder state machine, including any change on a terminal reminder.
var ErrInvalidTransition = errors.New("invalid reminder status transition")

// EventStore is a per-user append-only collection of dated events. Events are
// immutable except for the reminded flag.
type EventStore interface {
	InsertEvent(ctx context.Context, ev *model.Event) error
	// ListDueEvents returns events whose reminder date falls in [from, to)
	// and which have not yet produced a reminder.
	ListDueEvents(ctx context.Context, userID string, from, to time.Time) ([]model.Event, error)
	ListEvents(ctx context.Context, userID string, category model.Category, limit int) ([]model.Event, error)
	MarkReminded(ctx context.Context, userID, eventID string) error
}

// ReminderStore is a per-user reminder collection.
type ReminderStore interface {
	InsertReminder(ctx context.Context, r *model.Reminder) error
	ListReminders(ctx context.Context, userID string) ([]model.Reminder, error)
	// FlipNewToPending moves every "new" reminder to "pending". User-facing
	// retrieval calls this after listing, so "new" is shown at most once.
	FlipNewToPending(ctx context.Context, userID string) error
	ListRemindersByStatus(ctx context.Context, userID string, status model.ReminderStatus) ([]model.Reminder, error)
	// UpdateReminderStatus enforces the state machine and returns
	// ErrReminderNotFound or ErrInvalidTransition.
	UpdateReminderStatus(ctx context.Context, userID, id string, status model.ReminderStatus) error
	DeleteReminder(ctx context.Context, userID, id string) error
}

// MessageStore keeps conversation history per user.
type MessageStore interface {
	AppendMessage(ctx context.Context, userID, role, text string) error
	// History returns the most recent messages, oldest first, formatted as
	// "role: text".
	History(ctx context.Context, userID string, limit int) ([]string, error)
}

// Store bundles the three collections behind one handle.
type Store interface {
	EventStore
	ReminderStore
	MessageStore
	Close() error
}
