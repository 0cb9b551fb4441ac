package extraction

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reminisce-ai/reminisce/internal/core/common"
	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/core/timeparse"
	"github.com/reminisce-ai/reminisce/internal/llm"
)

// temporalKeywords gates the oracle call: a turn with none of these cannot
// contain a dated event, so the LLM is never invoked for it. This subsumes
// the older regex quick-pattern path; the oracle handles everything the
// keywords let through.
var temporalKeywords = []string{
	"tomorrow", "next week", "next month", "today",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
	"visiting", "visit", "coming", "appointment", "birthday", "anniversary",
	"in a week", "in two weeks", "this week", "this weekend",
}

// historyWindow is how many trailing history entries join the keyword guard.
const historyWindow = 4

// Extractor turns conversation turns into dated events. The LLM is the
// extraction oracle; everything it returns is re-validated here, and any
// failure along the way degrades to "no events extracted".
type Extractor struct {
	LLM    llm.LLMClient
	Prompt string
	// Now supplies the reference instant for date resolution; tests pin it.
	Now func() time.Time
}

func NewExtractor(llmClient llm.LLMClient, prompt string) *Extractor {
	return &Extractor{
		LLM:    llmClient,
		Prompt: prompt,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Extract analyzes one conversation turn and returns the dated events it
// mentions. Never returns an error: extraction is best-effort enrichment and
// must not fail the turn that triggered it.
func (e *Extractor) Extract(ctx context.Context, userID, message, response string, history []string) []model.Event {
	fullContext := message + " " + response
	if len(history) > 0 {
		tail := history
		if len(tail) > historyWindow {
			tail = tail[len(tail)-historyWindow:]
		}
		fullContext = strings.Join(tail, " ") + " " + fullContext
	}

	if !hasTemporalKeyword(fullContext) {
		return nil
	}

	conversation := fmt.Sprintf("User: %s\nAssistant: %s", message, response)
	raw, err := e.LLM.Generate(ctx, fmt.Sprintf(e.Prompt, conversation))
	if err != nil {
		log.Printf("extraction: oracle call failed for user %s: %v", userID, err)
		return nil
	}

	candidates, err := common.ParseJSONArray[model.EventCandidate](raw)
	if err != nil {
		log.Printf("extraction: failed to parse oracle response: %v", err)
		return nil
	}

	now := e.Now()
	var events []model.Event
	for _, c := range candidates {
		if c.Event == "" {
			continue
		}

		ev := model.Event{
			ID:            uuid.New().String(),
			UserID:        userID,
			Description:   c.Event,
			Category:      model.ParseCategory(c.Category),
			People:        c.People,
			TimeReference: c.TimeReference,
			SourceMessage: message,
			CreatedAt:     now,
		}

		if c.TimeReference != "" {
			if eventDate, ok := timeparse.ParseRelativeDate(c.TimeReference, now); ok {
				ev.EventDate = &eventDate
				reminderDate := ReminderDateFor(ev.Category, eventDate)
				ev.ReminderDate = &reminderDate
			}
		}

		log.Printf("extraction: extracted %q (category=%s, date=%v) for user %s",
			truncate(ev.Description, 50), ev.Category, ev.EventDate, userID)
		events = append(events, ev)
	}
	return events
}

// ReminderDateFor applies the category offset policy: birthdays and
// anniversaries remind one day early, everything else on the day itself.
func ReminderDateFor(category model.Category, eventDate time.Time) time.Time {
	if category == model.CategoryBirthday || category == model.CategoryAnniversary {
		return eventDate.AddDate(0, 0, -1)
	}
	return eventDate
}

func hasTemporalKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
