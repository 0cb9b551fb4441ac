// Package sweep finds today's not-yet-reminded events and turns them
// into reminders. It is triggered per-user rather than by a cron, so a
// user who opens the app at noon still gets the morning's reminders.
package sweep

import (
	"context"
	"log"
	"time"

	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/core/scheduler"
	"github.com/reminisce-ai/reminisce/internal/store"
)

type Sweep struct {
	Events    store.EventStore
	Scheduler *scheduler.Scheduler
}

func NewSweep(events store.EventStore, sched *scheduler.Scheduler) *Sweep {
	return &Sweep{Events: events, Scheduler: sched}
}

// Run creates reminders for the user's events whose reminder date falls
// on the given day. Each event is marked reminded only after the
// scheduler handled it, so a failed creation is retried on the next
// sweep; a dedupe skip counts as handled. An empty result is the normal
// case for most days.
func (s *Sweep) Run(ctx context.Context, userID string, today time.Time) []model.Reminder {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	end := start.Add(24 * time.Hour)

	events, err := s.Events.ListDueEvents(ctx, userID, start, end)
	if err != nil {
		log.Printf("sweep: failed to list due events for user %s: %v", userID, err)
		return nil
	}

	var created []model.Reminder
	for _, event := range events {
		reminder, err := s.Scheduler.Schedule(ctx, userID, event)
		if err != nil {
			log.Printf("sweep: failed to schedule reminder for event %s: %v", event.ID, err)
			continue
		}
		if err := s.Events.MarkReminded(ctx, userID, event.ID); err != nil {
			log.Printf("sweep: failed to mark event %s reminded: %v", event.ID, err)
			continue
		}
		if reminder != nil {
			created = append(created, *reminder)
		}
	}
	return created
}
