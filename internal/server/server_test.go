package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reminisce-ai/reminisce/internal/config"
	"github.com/reminisce-ai/reminisce/internal/core"
	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/memory"
	"github.com/reminisce-ai/reminisce/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLLM struct {
	Response string
}

func (m *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	// The fact and event oracles expect JSON; everything else is chat.
	if strings.Contains(prompt, "FACTS:") || strings.Contains(prompt, "EVENTS:") {
		return "[]", nil
	}
	return m.Response, nil
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Prompts.System = "You are a gentle companion."
	cfg.Prompts.Facts = "FACTS:\n%s"
	cfg.Prompts.Events = "EVENTS:\n%s"
	cfg.Memory.TopK = 5

	st := store.NewMemoryStore()
	embedder := &memory.MockEmbedderClient{Default: []float32{1, 0, 0}}
	brain := core.NewBrain(cfg, &stubLLM{Response: "Hello there!"}, memory.New(embedder, nil), st)
	brain.Background = func(fn func()) { fn() }

	s := NewServer(brain, st)
	return s, s.SetupRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestChat(t *testing.T) {
	_, r := newTestServer(t)

	w, body := doJSON(t, r, http.MethodPost, "/api/chat",
		`{"user_id": "u1", "message": "Good morning"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello there!", body["response"])
	assert.Equal(t, "u1", body["user_id"])
}

func TestChatValidation(t *testing.T) {
	_, r := newTestServer(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/chat", `{"message": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/chat", `{"user_id": "u1", "message": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemindersLifecycle(t *testing.T) {
	_, r := newTestServer(t)

	w, created := doJSON(t, r, http.MethodPost, "/api/reminders",
		`{"user_id": "u1", "task": "Call your grandson", "time": "2:00 PM"}`)
	require.Equal(t, http.StatusOK, w.Code)
	reminder := created["reminder"].(map[string]any)
	id := reminder["id"].(string)
	assert.Equal(t, "new", reminder["status"])

	// First fetch shows the reminder as new, then flips it.
	w, body := doJSON(t, r, http.MethodGet, "/api/reminders?user_id=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := body["reminders"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].(map[string]any)["status"])

	w, body = doJSON(t, r, http.MethodGet, "/api/reminders?user_id=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	list = body["reminders"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "pending", list[0].(map[string]any)["status"])

	w, _ = doJSON(t, r, http.MethodPatch, "/api/reminders/"+id+"/status",
		`{"user_id": "u1", "status": "completed"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// Completed is terminal.
	w, _ = doJSON(t, r, http.MethodPatch, "/api/reminders/"+id+"/status",
		`{"user_id": "u1", "status": "dismissed"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/reminders/"+id+"?user_id=u1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, r, http.MethodGet, "/api/reminders?user_id=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["reminders"])
}

func TestUpdateReminderStatusErrors(t *testing.T) {
	_, r := newTestServer(t)

	w, _ := doJSON(t, r, http.MethodPatch, "/api/reminders/nope/status",
		`{"user_id": "u1", "status": "completed"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, http.MethodPatch, "/api/reminders/nope/status",
		`{"user_id": "u1", "status": "snoozed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReminderNotFound(t *testing.T) {
	_, r := newTestServer(t)

	w, _ := doJSON(t, r, http.MethodDelete, "/api/reminders/nope?user_id=u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMemories(t *testing.T) {
	s, r := newTestServer(t)

	ev := model.Event{
		ID:          "ev-1",
		UserID:      "u1",
		Description: "Daughter is visiting",
		Category:    model.CategoryVisit,
	}
	require.NoError(t, s.Stores.InsertEvent(context.Background(), &ev))

	w, body := doJSON(t, r, http.MethodGet, "/api/memories?user_id=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = doJSON(t, r, http.MethodGet, "/api/memories?user_id=u1&category=birthday", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["count"])
}

func TestHealth(t *testing.T) {
	_, r := newTestServer(t)

	w, body := doJSON(t, r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = doJSON(t, r, http.MethodGet, "/api/health/full", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
