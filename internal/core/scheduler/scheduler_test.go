package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/store"
)

type mockRecall struct {
	Saved []string
	Meta  []map[string]string
	Err   error
}

func (m *mockRecall) Save(ctx context.Context, userID, text string, metadata map[string]string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Saved = append(m.Saved, text)
	m.Meta = append(m.Meta, metadata)
	return uuid.New().String(), nil
}

func eventWithReminder(task string, reminderDate time.Time) model.Event {
	return model.Event{
		ID:           uuid.New().String(),
		UserID:       "u1",
		Description:  task,
		Category:     model.CategoryVisit,
		ReminderDate: &reminderDate,
		EventDate:    &reminderDate,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestScheduleCreatesReminder(t *testing.T) {
	ctx := context.Background()
	reminders := store.NewMemoryStore()
	recall := &mockRecall{}
	s := NewScheduler(reminders, recall)

	date := time.Date(2025, time.March, 11, 15, 0, 0, 0, time.UTC)
	r, err := s.Schedule(ctx, "u1", eventWithReminder("Daughter is visiting", date))
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, "Daughter is visiting", r.Task)
	assert.Equal(t, "3:00 PM", r.Time)
	assert.Equal(t, model.StatusNew, r.Status)

	require.Len(t, recall.Saved, 1)
	assert.Equal(t, "User has a reminder to Daughter is visiting on March 11, 2025 at 3:00 PM", recall.Saved[0])
	assert.Equal(t, "reminder", recall.Meta[0]["category"])
}

func TestScheduleDefaultDisplayTime(t *testing.T) {
	ctx := context.Background()
	s := NewScheduler(store.NewMemoryStore(), nil)

	// 09:00 is the parser default, so the display time is the fixed default.
	date := time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
	r, err := s.Schedule(ctx, "u1", eventWithReminder("Doctor appointment", date))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "9:00 AM", r.Time)
}

func TestScheduleNoReminderDate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewScheduler(st, nil)

	r, err := s.Schedule(ctx, "u1", model.Event{ID: uuid.New().String(), Description: "undated"})
	require.NoError(t, err)
	assert.Nil(t, r)

	all, err := st.ListReminders(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestScheduleDeduplicatesCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewScheduler(st, nil)

	date := time.Date(2025, time.March, 11, 15, 0, 0, 0, time.UTC)
	first, err := s.Schedule(ctx, "u1", eventWithReminder("Call your grandson", date))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := s.Schedule(ctx, "u1", eventWithReminder("call YOUR grandson", date))
	require.NoError(t, err)
	assert.Nil(t, second)

	all, err := st.ListReminders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestScheduleRecallFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := NewScheduler(st, &mockRecall{Err: errors.New("index unavailable")})

	date := time.Date(2025, time.March, 11, 15, 0, 0, 0, time.UTC)
	r, err := s.Schedule(ctx, "u1", eventWithReminder("Water the plants", date))
	require.NoError(t, err)
	require.NotNil(t, r)

	all, err := st.ListReminders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
