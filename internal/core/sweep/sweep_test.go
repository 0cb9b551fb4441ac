package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/core/scheduler"
	"github.com/reminisce-ai/reminisce/internal/store"
)

func insertEvent(t *testing.T, st *store.MemoryStore, userID, task string, reminderDate time.Time) model.Event {
	t.Helper()
	event := model.Event{
		ID:           uuid.New().String(),
		UserID:       userID,
		Description:  task,
		Category:     model.CategoryAppointment,
		EventDate:    &reminderDate,
		ReminderDate: &reminderDate,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.InsertEvent(context.Background(), &event))
	return event
}

func TestRunCreatesTodaysReminders(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewSweep(st, scheduler.NewScheduler(st, nil))

	today := time.Date(2025, time.March, 11, 8, 30, 0, 0, time.UTC)
	insertEvent(t, st, "u1", "Doctor appointment", time.Date(2025, time.March, 11, 15, 0, 0, 0, time.UTC))
	insertEvent(t, st, "u1", "Next week checkup", time.Date(2025, time.March, 18, 9, 0, 0, 0, time.UTC))

	created := s.Run(ctx, "u1", today)
	require.Len(t, created, 1)
	assert.Equal(t, "Doctor appointment", created[0].Task)
	assert.Equal(t, "3:00 PM", created[0].Time)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewSweep(st, scheduler.NewScheduler(st, nil))

	today := time.Date(2025, time.March, 11, 8, 30, 0, 0, time.UTC)
	insertEvent(t, st, "u1", "Water the plants", time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC))

	first := s.Run(ctx, "u1", today)
	require.Len(t, first, 1)

	second := s.Run(ctx, "u1", today)
	assert.Empty(t, second)

	all, err := st.ListReminders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRunDedupeSkipStillMarksReminded(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	sched := scheduler.NewScheduler(st, nil)
	s := NewSweep(st, sched)

	today := time.Date(2025, time.March, 11, 8, 30, 0, 0, time.UTC)
	date := time.Date(2025, time.March, 11, 15, 0, 0, 0, time.UTC)
	event := insertEvent(t, st, "u1", "Call your grandson", date)

	// A reminder for the same task already exists, so the sweep's
	// schedule call is a skip. The event must still be marked handled.
	_, err := sched.Schedule(ctx, "u1", model.Event{
		ID:           uuid.New().String(),
		UserID:       "u1",
		Description:  "call your grandson",
		ReminderDate: &date,
	})
	require.NoError(t, err)

	created := s.Run(ctx, "u1", today)
	assert.Empty(t, created)

	due, err := st.ListDueEvents(ctx, "u1", today.Truncate(24*time.Hour), today.Truncate(24*time.Hour).Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due, "event %s should be marked reminded", event.ID)
}

func TestRunEmptyDay(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewSweep(st, scheduler.NewScheduler(st, nil))

	created := s.Run(ctx, "u1", time.Date(2025, time.March, 11, 8, 30, 0, 0, time.UTC))
	assert.Empty(t, created)
}
