// Package scheduler turns resolved events into user-facing reminders.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/core/timeparse"
	"github.com/reminisce-ai/reminisce/internal/store"
)

// RecallStore receives a plain-text record of each scheduled reminder so
// future retrieval-augmented responses can mention it. Writes are
// best-effort.
type RecallStore interface {
	Save(ctx context.Context, userID, text string, metadata map[string]string) (string, error)
}

type Scheduler struct {
	Reminders store.ReminderStore
	Recall    RecallStore
}

func NewScheduler(reminders store.ReminderStore, recall RecallStore) *Scheduler {
	return &Scheduler{Reminders: reminders, Recall: recall}
}

// Schedule creates a reminder for an event's reminder date. Events without a
// reminder date are a no-op. An existing reminder with the same task
// (compared case-insensitively) makes this an idempotent no-op; the
// dedupe check is best-effort under concurrent turns, not a guarantee.
func (s *Scheduler) Schedule(ctx context.Context, userID string, event model.Event) (*model.Reminder, error) {
	if event.ReminderDate == nil {
		return nil, nil
	}

	displayTime := timeparse.DefaultDisplayTime
	if !timeparse.IsDefaultClock(*event.ReminderDate) {
		displayTime = timeparse.FormatDisplayTime(*event.ReminderDate)
	}

	existing, err := s.Reminders.ListReminders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list reminders: %w", err)
	}
	for _, r := range existing {
		if strings.EqualFold(r.Task, event.Description) {
			log.Printf("scheduler: reminder %q already exists for user %s, skipping", event.Description, userID)
			return nil, nil
		}
	}

	reminder := &model.Reminder{
		ID:            uuid.New().String(),
		UserID:        userID,
		Task:          event.Description,
		Time:          displayTime,
		Status:        model.StatusNew,
		SourceEventID: event.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Reminders.InsertReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("schedule: insert reminder: %w", err)
	}
	log.Printf("scheduler: created reminder for user %s: %s at %s", userID, reminder.Task, reminder.Time)

	// Make the reminder recallable in conversation. Not transactional with
	// the insert above; a failure here is logged and the reminder stands.
	if s.Recall != nil {
		dateStr := event.ReminderDate.Format("January 2, 2006")
		recallText := fmt.Sprintf("User has a reminder to %s on %s at %s", reminder.Task, dateStr, reminder.Time)
		if _, err := s.Recall.Save(ctx, userID, recallText, map[string]string{
			"category": "reminder",
			"task":     reminder.Task,
			"date":     dateStr,
			"time":     reminder.Time,
		}); err != nil {
			log.Printf("scheduler: failed to save recall memory for user %s: %v", userID, err)
		}
	}

	return reminder, nil
}
