package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reminisce-ai/reminisce/internal/config"
	"github.com/reminisce-ai/reminisce/internal/core"
	"github.com/reminisce-ai/reminisce/internal/core/model"
	"github.com/reminisce-ai/reminisce/internal/llm"
	"github.com/reminisce-ai/reminisce/internal/memory"
	"github.com/reminisce-ai/reminisce/internal/store"
)

type Server struct {
	Brain  *core.Brain
	Stores store.Store
}

func NewServer(brain *core.Brain, stores store.Store) *Server {
	return &Server{Brain: brain, Stores: stores}
}

// Bootstrap builds a fully wired server from config/config.toml plus
// environment overrides. Fatal on misconfiguration: there is no useful
// degraded mode without an oracle or a store.
func Bootstrap() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Env vars win over the config file.
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	llmClient, embedderClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	var stores store.Store
	if cfg.Store.Path == "" {
		log.Printf("No store path configured, using in-memory store (data is lost on restart)")
		stores = store.NewMemoryStore()
	} else {
		stores, err = store.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to open store at %s: %v", cfg.Store.Path, err)
		}
	}

	var reranker llm.RerankerClient
	if cfg.Memory.Rerank {
		reranker = llm.NewSimpleLLMReranker(llmClient)
	}
	memStore := memory.New(embedderClient, reranker)

	return NewServer(core.NewBrain(cfg, llmClient, memStore, stores), stores)
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.POST("/chat", s.Chat)
	api.GET("/reminders", s.GetReminders)
	api.POST("/reminders", s.CreateReminder)
	api.PATCH("/reminders/:id/status", s.UpdateReminderStatus)
	api.DELETE("/reminders/:id", s.DeleteReminder)
	api.GET("/memories", s.GetMemories)
	api.GET("/health", s.Health)
	api.GET("/health/full", s.FullHealth)

	return r
}

type ChatRequest struct {
	UserID  string   `json:"user_id"`
	Message string   `json:"message"`
	History []string `json:"history"`
}

func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}

	// First contact of the day surfaces any reminders whose date arrived.
	if created := s.Brain.ProcessDailyReminders(c.Request.Context(), req.UserID); len(created) > 0 {
		log.Printf("server: triggered %d daily reminders for user %s", len(created), req.UserID)
	}

	response, err := s.Brain.Respond(c.Request.Context(), req.UserID, req.Message, req.History)
	if err != nil {
		log.Printf("server: chat failed for user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": response,
		"user_id":  req.UserID,
	})
}

func (s *Server) GetReminders(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	reminders, err := s.Stores.ListReminders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reminders"})
		return
	}

	// The user has now seen the new reminders; subsequent fetches show
	// them as pending.
	if err := s.Stores.FlipNewToPending(c.Request.Context(), userID); err != nil {
		log.Printf("server: failed to flip new reminders for user %s: %v", userID, err)
	}

	if reminders == nil {
		reminders = []model.Reminder{}
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

type CreateReminderRequest struct {
	UserID string `json:"user_id"`
	Task   string `json:"task"`
	Time   string `json:"time"`
}

func (s *Server) CreateReminder(c *gin.Context) {
	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.UserID == "" || req.Task == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and task required"})
		return
	}
	if req.Time == "" {
		req.Time = "9:00 AM"
	}

	reminder := &model.Reminder{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Task:      req.Task,
		Time:      req.Time,
		Status:    model.StatusNew,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Stores.InsertReminder(c.Request.Context(), reminder); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reminder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder created", "reminder": reminder})
}

type UpdateStatusRequest struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func (s *Server) UpdateReminderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	status, err := model.ParseReminderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = s.Stores.UpdateReminderStatus(c.Request.Context(), req.UserID, c.Param("id"), status)
	switch {
	case errors.Is(err, store.ErrReminderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
	case errors.Is(err, store.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reminder"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Reminder updated"})
	}
}

func (s *Server) DeleteReminder(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	err := s.Stores.DeleteReminder(c.Request.Context(), userID, c.Param("id"))
	switch {
	case errors.Is(err, store.ErrReminderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reminder"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
	}
}

func (s *Server) GetMemories(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var category model.Category
	if v := c.Query("category"); v != "" {
		category = model.ParseCategory(v)
	}
	events, err := s.Stores.ListEvents(c.Request.Context(), userID, category, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list memories"})
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"count":    len(events),
		"memories": events,
	})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"brain":   "initialized",
		"version": "2.0.0",
	})
}

func (s *Server) FullHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"services": s.Brain.HealthCheck(c.Request.Context()),
	})
}
