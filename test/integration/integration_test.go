//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reminisce-ai/reminisce/internal/config"
	"github.com/reminisce-ai/reminisce/internal/core"
	"github.com/reminisce-ai/reminisce/internal/llm"
	"github.com/reminisce-ai/reminisce/internal/memory"
	"github.com/reminisce-ai/reminisce/internal/store"
)

// TestFullFlow exercises the real pipeline against a live LLM provider:
// chat turn -> event extraction -> reminder scheduling -> daily sweep.
// Requires LLM_PROVIDER and credentials in the environment (or ../../.env).
func TestFullFlow(t *testing.T) {
	_ = godotenv.Load("../../.env")

	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		t.Skip("Skipping integration test: LLM_PROVIDER not set")
	}

	cfg, err := config.Load("../../config/config.toml")
	require.NoError(t, err)

	cfg.LLM.Provider = provider
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	ctx := context.Background()
	llmClient, embedderClient, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)

	stores, err := store.Open(filepath.Join(t.TempDir(), "reminisce.db"))
	require.NoError(t, err)
	defer stores.Close()

	brain := core.NewBrain(cfg, llmClient, memory.New(embedderClient, nil), stores)
	// Run the post-response extraction inline so assertions see its output.
	brain.Background = func(fn func()) { fn() }

	userID := "it-" + uuid.New().String()

	response, err := brain.Respond(ctx, userID,
		"My daughter Sarah is visiting next Tuesday at 3pm, I'm so excited!", nil)
	require.NoError(t, err)
	require.NotEmpty(t, response)
	t.Logf("Response: %s", response)

	history, err := stores.History(ctx, userID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	events, err := stores.ListEvents(ctx, userID, "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, events, "expected the oracle to extract a visit event")
	t.Logf("Extracted event: %q (category=%s)", events[0].Description, events[0].Category)
	require.NotNil(t, events[0].EventDate)

	reminders, err := stores.ListReminders(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, reminders)
	assert.Equal(t, "3:00 PM", reminders[0].Time)

	// The sweep on the event's day is a no-op for already scheduled tasks
	// but must mark the event handled.
	created := brain.Sweeper.Run(ctx, userID, *events[0].ReminderDate)
	assert.Empty(t, created)

	dayStart := events[0].ReminderDate.Truncate(24 * time.Hour)
	due, err := stores.ListDueEvents(ctx, userID, dayStart, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

// TestHealthCheck probes the configured provider and the vector store.
func TestHealthCheck(t *testing.T) {
	_ = godotenv.Load("../../.env")

	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		t.Skip("Skipping integration test: LLM_PROVIDER not set")
	}

	cfg, err := config.Load("../../config/config.toml")
	require.NoError(t, err)
	cfg.LLM.Provider = provider
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	ctx := context.Background()
	llmClient, embedderClient, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)

	brain := core.NewBrain(cfg, llmClient, memory.New(embedderClient, nil), store.NewMemoryStore())
	status := brain.HealthCheck(ctx)
	t.Logf("Health: %v", status)
	assert.Equal(t, "ok", status["brain"])
}
