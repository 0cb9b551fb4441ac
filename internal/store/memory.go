package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/reminisce-ai/reminisce/internal/core/model"
)

// MemoryStore is the in-process fallback used when no sqlite path is
// configured, and the test double for the pipeline. It is injected
// explicitly, never a package-level singleton.
type MemoryStore struct {
	mu        sync.Mutex
	events    map[string][]*model.Event    // keyed by user ID
	reminders map[string][]*model.Reminder // keyed by user ID
	messages  map[string][]storedMessage   // keyed by user ID
}

type storedMessage struct {
	role string
	text string
	at   time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:    make(map[string][]*model.Event),
		reminders: make(map[string][]*model.Reminder),
		messages:  make(map[string][]storedMessage),
	}
}

func (s *MemoryStore) InsertEvent(ctx context.Context, ev *model.Event) error {
	if ev.ID == "" {
		return fmt.Errorf("insert event: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ev
	s.events[ev.UserID] = append(s.events[ev.UserID], &cp)
	return nil
}

func (s *MemoryStore) ListDueEvents(ctx context.Context, userID string, from, to time.Time) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []model.Event
	for _, ev := range s.events[userID] {
		if ev.Reminded || ev.ReminderDate == nil {
			continue
		}
		if !ev.ReminderDate.Before(from) && ev.ReminderDate.Before(to) {
			due = append(due, *ev)
		}
	}
	return due, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, userID string, category model.Category, limit int) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, ev := range s.events[userID] {
		if category != "" && ev.Category != category {
			continue
		}
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkReminded(ctx context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events[userID] {
		if ev.ID == eventID {
			ev.Reminded = true
			return nil
		}
	}
	return fmt.Errorf("mark reminded: event %s not found", eventID)
}

func (s *MemoryStore) InsertReminder(ctx context.Context, r *model.Reminder) error {
	if r.ID == "" {
		return fmt.Errorf("insert reminder: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reminders[r.UserID] = append(s.reminders[r.UserID], &cp)
	return nil
}

func (s *MemoryStore) ListReminders(ctx context.Context, userID string) ([]model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reminder
	for _, r := range s.reminders[userID] {
		out = append(out, *r)
	}
	return out, nil
}

func (s *MemoryStore) FlipNewToPending(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders[userID] {
		if r.Status == model.StatusNew {
			r.Status = model.StatusPending
		}
	}
	return nil
}

func (s *MemoryStore) ListRemindersByStatus(ctx context.Context, userID string, status model.ReminderStatus) ([]model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reminder
	for _, r := range s.reminders[userID] {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateReminderStatus(ctx context.Context, userID, id string, status model.ReminderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders[userID] {
		if r.ID != id {
			continue
		}
		if !model.CanTransition(r.Status, status) {
			return ErrInvalidTransition
		}
		r.Status = status
		return nil
	}
	return ErrReminderNotFound
}

func (s *MemoryStore) DeleteReminder(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.reminders[userID]
	for i, r := range list {
		if r.ID == id {
			s.reminders[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrReminderNotFound
}

func (s *MemoryStore) AppendMessage(ctx context.Context, userID, role, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[userID] = append(s.messages[userID], storedMessage{role: role, text: text, at: time.Now().UTC()})
	return nil
}

func (s *MemoryStore) History(ctx context.Context, userID string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fmt.Sprintf("%s: %s", m.role, m.text))
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
