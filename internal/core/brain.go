// Package core wires the conversational pipeline together: retrieval-augmented
// response generation, background fact and event extraction, and the daily
// reminder sweep.
package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/reminisce-ai/reminisce/internal/config"
	"github.com/reminisce-ai/reminisce/internal/core/extraction"
	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/core/scheduler"
	"github.com/reminisce-ai/reminisce/internal/core/sweep"
	"github.com/reminisce-ai/reminisce/internal/llm"
	"github.com/reminisce-ai/reminisce/internal/memory"
	"github.com/reminisce-ai/reminisce/internal/store"
)

// maxHistoryMessages bounds how much recent conversation goes into the prompt.
const maxHistoryMessages = 10

// backgroundTimeout bounds the detached post-response work (saving messages,
// fact and event extraction) so a hung oracle call cannot leak goroutines.
const backgroundTimeout = 60 * time.Second

type Brain struct {
	LLM       llm.LLMClient
	Memory    *memory.Store
	Facts     *memory.FactExtractor
	Extractor *extraction.Extractor
	Scheduler *scheduler.Scheduler
	Sweeper   *sweep.Sweep
	Stores    store.Store

	systemPrompt string
	topK         int
	threshold    float32

	// Background runs fn on the post-response path. Replaced in tests to
	// make the detached work synchronous.
	Background func(fn func())
}

func NewBrain(cfg *config.Config, llmClient llm.LLMClient, memStore *memory.Store, stores store.Store) *Brain {
	sched := scheduler.NewScheduler(stores, memStore)
	return &Brain{
		LLM:          llmClient,
		Memory:       memStore,
		Facts:        memory.NewFactExtractor(llmClient, memStore, cfg.Prompts.Facts),
		Extractor:    extraction.NewExtractor(llmClient, cfg.Prompts.Events),
		Scheduler:    sched,
		Sweeper:      sweep.NewSweep(stores, sched),
		Stores:       stores,
		systemPrompt: cfg.Prompts.System,
		topK:         cfg.Memory.TopK,
		threshold:    float32(cfg.Memory.Threshold),
		Background:   func(fn func()) { go fn() },
	}
}

// Respond generates the assistant's reply for one turn. Memory search, prompt
// assembly and generation happen synchronously; saving the conversation,
// extracting facts and extracting dated events all run detached afterwards,
// and their failures never surface to the caller.
func (b *Brain) Respond(ctx context.Context, userID, message string, history []string) (string, error) {
	if len(history) == 0 {
		loaded, err := b.Stores.History(ctx, userID, maxHistoryMessages)
		if err != nil {
			log.Printf("brain: failed to load history for user %s: %v", userID, err)
		} else {
			history = loaded
		}
	}

	memories, err := b.Memory.Search(ctx, userID, message, b.topK, b.threshold)
	if err != nil {
		log.Printf("brain: memory search failed for user %s: %v", userID, err)
		memories = nil
	}

	prompt := b.buildPrompt(memories, history, message)
	response, err := b.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}

	b.Background(func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		b.saveConversation(bgCtx, userID, message, response)
	})
	b.Background(func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		b.Facts.ExtractAndSave(bgCtx, userID, formatForExtraction(history, message, response))
	})
	b.Background(func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		b.processEvents(bgCtx, userID, message, response, history)
	})

	return response, nil
}

// ProcessDailyReminders runs the reminder sweep for today. Called on the
// first authenticated turn of a session rather than by a cron, so reminders
// appear when the user actually shows up.
func (b *Brain) ProcessDailyReminders(ctx context.Context, userID string) []model.Reminder {
	return b.Sweeper.Run(ctx, userID, time.Now().UTC())
}

// HealthCheck probes the oracle and the vector store. Each entry is "ok" or
// an error description; a degraded service never fails the whole check.
func (b *Brain) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{"brain": "ok"}

	resp, err := b.LLM.Generate(ctx, "Say 'ok' and nothing else.")
	switch {
	case err != nil:
		status["llm"] = fmt.Sprintf("error: %v", err)
	case strings.Contains(strings.ToLower(resp), "ok"):
		status["llm"] = "ok"
	default:
		status["llm"] = "warning"
	}

	if _, err := b.Memory.Search(ctx, "health-check", "ping", 1, 0); err != nil {
		status["memory"] = fmt.Sprintf("error: %v", err)
	} else {
		status["memory"] = "ok"
	}

	return status
}

func (b *Brain) saveConversation(ctx context.Context, userID, message, response string) {
	if err := b.Stores.AppendMessage(ctx, userID, "user", message); err != nil {
		log.Printf("brain: failed to save user message for %s: %v", userID, err)
		return
	}
	if err := b.Stores.AppendMessage(ctx, userID, "assistant", response); err != nil {
		log.Printf("brain: failed to save assistant message for %s: %v", userID, err)
	}
}

// processEvents runs the temporal pipeline for one turn: extract dated
// events, persist them, and schedule reminders for the ones that resolved to
// a reminder date.
func (b *Brain) processEvents(ctx context.Context, userID, message, response string, history []string) {
	events := b.Extractor.Extract(ctx, userID, message, response, history)
	for _, event := range events {
		if err := b.Stores.InsertEvent(ctx, &event); err != nil {
			log.Printf("brain: failed to save event %q for user %s: %v", event.Description, userID, err)
			continue
		}
		if _, err := b.Scheduler.Schedule(ctx, userID, event); err != nil {
			log.Printf("brain: failed to schedule reminder for event %s: %v", event.ID, err)
		}
	}
}

func (b *Brain) buildPrompt(memories []memory.Entry, history []string, message string) string {
	recent := history
	if len(recent) > maxHistoryMessages {
		recent = recent[len(recent)-maxHistoryMessages:]
	}
	historyText := "No previous messages."
	if len(recent) > 0 {
		historyText = strings.Join(recent, "\n")
	}

	return fmt.Sprintf(`%s

## Long-Term Memory (from previous conversations):
%s

## Recent Conversation:
%s

## Current Message:
User: %s

## Your Response:`, b.systemPrompt, formatMemories(memories), historyText, message)
}

func formatMemories(memories []memory.Entry) string {
	if len(memories) == 0 {
		return "No relevant background information available."
	}
	lines := []string{"Relevant information about this user:"}
	for _, mem := range memories {
		if mem.Category != "" && mem.Category != "general" {
			lines = append(lines, fmt.Sprintf("- [%s] %s", mem.Category, mem.Text))
		} else {
			lines = append(lines, "- "+mem.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func formatForExtraction(history []string, message, response string) string {
	recent := history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	parts := append([]string{}, recent...)
	parts = append(parts, "User: "+message, "Assistant: "+response)
	return strings.Join(parts, "\n")
}
