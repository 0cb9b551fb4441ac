package model

import (
	"strings"
	"time"
)

// Category classifies an extracted event. The set is closed: anything the
// oracle returns outside of it folds to CategoryOther.
type Category string

const (
	CategoryVisit       Category = "visit"
	CategoryAppointment Category = "appointment"
	CategoryBirthday    Category = "birthday"
	CategoryAnniversary Category = "anniversary"
	CategoryActivity    Category = "activity"
	CategoryOther       Category = "other"
)

// ParseCategory folds an oracle-supplied category string into the closed set.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryVisit, CategoryAppointment, CategoryBirthday, CategoryAnniversary, CategoryActivity:
		return Category(strings.ToLower(strings.TrimSpace(s)))
	default:
		return CategoryOther
	}
}

// Event is an extracted fact with temporal significance. Events are immutable
// once stored; the only mutation is the Reminded flag set by the daily sweep.
type Event struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Description   string     `json:"description"`
	Category      Category   `json:"category"`
	People        []string   `json:"people,omitempty"`
	TimeReference string     `json:"time_reference,omitempty"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	ReminderDate  *time.Time `json:"reminder_date,omitempty"`
	SourceMessage string     `json:"source_message,omitempty"`
	Reminded      bool       `json:"reminded"`
	CreatedAt     time.Time  `json:"created_at"`
}

// EventCandidate is the wire shape the extraction oracle returns.
type EventCandidate struct {
	Event         string   `json:"event"`
	TimeReference string   `json:"time_reference"`
	Category      string   `json:"category"`
	People        []string `json:"people"`
}
