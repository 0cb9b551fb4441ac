package model

import (
	"fmt"
	"time"
)

// ReminderStatus is the reminder lifecycle state machine:
//
//	new -> pending -> {completed | dismissed}
//
// "new" means the reminder has not yet been shown to the user; the first
// retrieval flips it to "pending". Completed and dismissed are terminal.
type ReminderStatus string

const (
	StatusNew       ReminderStatus = "new"
	StatusPending   ReminderStatus = "pending"
	StatusCompleted ReminderStatus = "completed"
	StatusDismissed ReminderStatus = "dismissed"
)

// ParseReminderStatus validates a status string supplied by a caller.
func ParseReminderStatus(s string) (ReminderStatus, error) {
	switch ReminderStatus(s) {
	case StatusNew, StatusPending, StatusCompleted, StatusDismissed:
		return ReminderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown reminder status %q", s)
	}
}

// CanTransition reports whether a status change is allowed.
// Terminal states accept no further transitions.
func CanTransition(from, to ReminderStatus) bool {
	switch from {
	case StatusNew:
		return to == StatusPending || to == StatusCompleted || to == StatusDismissed
	case StatusPending:
		return to == StatusCompleted || to == StatusDismissed
	default:
		return false
	}
}

// Reminder is an actionable, user-facing notification.
type Reminder struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Task          string         `json:"task"`
	Time          string         `json:"time"`
	Status        ReminderStatus `json:"status"`
	SourceEventID string         `json:"source_event_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
