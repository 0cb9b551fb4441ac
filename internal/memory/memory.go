// Package memory is the conversational long-term memory: a per-user vector
// index of extracted facts, searched on every turn to ground responses.
package memory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/reminisce-ai/reminisce/internal/llm"
)

// Entry is one retrieved memory.
type Entry struct {
	ID        string
	Text      string
	Category  string
	Score     float32
	Timestamp string
}

// Store wraps an embedded chromem-go index. Each user gets their own
// collection so memories never leak across users.
type Store struct {
	db       *chromem.DB
	embedder llm.EmbedderClient
	reranker llm.RerankerClient

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// New builds a memory store. embedder may be nil (e.g. the Claude provider
// has no embedding API); the store then degrades to saving and searching
// nothing, which the pipeline treats as "no memories".
func New(embedder llm.EmbedderClient, reranker llm.RerankerClient) *Store {
	return &Store{
		db:          chromem.NewDB(),
		embedder:    embedder,
		reranker:    reranker,
		collections: make(map[string]*chromem.Collection),
	}
}

func (s *Store) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	name := "user_" + userID
	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// Save embeds text and stores it in the user's collection. Returns the
// generated memory ID.
func (s *Store) Save(ctx context.Context, userID, text string, metadata map[string]string) (string, error) {
	if s.embedder == nil {
		return "", fmt.Errorf("save memory: no embedder configured")
	}
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return "", err
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("save memory: embed: %w", err)
	}

	meta := map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"category":  "general",
	}
	for k, v := range metadata {
		meta[k] = v
	}

	id := uuid.New().String()
	doc := chromem.Document{
		ID:        id,
		Content:   text,
		Embedding: embedding,
		Metadata:  meta,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("save memory: add document: %w", err)
	}
	return id, nil
}

// SaveBatch stores several memories with per-text categories.
func (s *Store) SaveBatch(ctx context.Context, userID string, texts, categories []string) ([]string, error) {
	ids := make([]string, 0, len(texts))
	for i, text := range texts {
		meta := map[string]string{}
		if i < len(categories) && categories[i] != "" {
			meta["category"] = categories[i]
		}
		id, err := s.Save(ctx, userID, text, meta)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Search returns the user's memories most similar to query, filtered by a
// minimum similarity, optionally reordered by the LLM reranker.
func (s *Store) Search(ctx context.Context, userID, query string, topK int, threshold float32) ([]Entry, error) {
	if s.embedder == nil {
		return nil, nil
	}
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	// chromem rejects result counts above the collection size.
	n := topK
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search memories: embed: %w", err)
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search memories: query: %w", err)
	}

	var entries []Entry
	for _, res := range results {
		if res.Similarity < threshold {
			continue
		}
		entries = append(entries, Entry{
			ID:        res.ID,
			Text:      res.Content,
			Category:  res.Metadata["category"],
			Score:     res.Similarity,
			Timestamp: res.Metadata["timestamp"],
		})
	}

	if s.reranker != nil && len(entries) > 1 {
		entries = s.rerank(ctx, query, entries)
	}
	return entries, nil
}

func (s *Store) rerank(ctx context.Context, query string, entries []Entry) []Entry {
	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.Text
	}
	indices, err := s.reranker.Rank(ctx, query, docs)
	if err != nil {
		log.Printf("memory: rerank failed, keeping similarity order: %v", err)
		return entries
	}
	reordered := make([]Entry, 0, len(entries))
	seen := make(map[int]bool)
	for _, idx := range indices {
		if idx < 0 || idx >= len(entries) || seen[idx] {
			continue
		}
		seen[idx] = true
		reordered = append(reordered, entries[idx])
	}
	// The reranker may drop indices; keep anything it forgot, in order.
	for i, e := range entries {
		if !seen[i] {
			reordered = append(reordered, e)
		}
	}
	return reordered
}

// DeleteUser removes all of a user's memories.
func (s *Store) DeleteUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, userID)
	if err := s.db.DeleteCollection("user_" + userID); err != nil {
		return fmt.Errorf("delete user memories: %w", err)
	}
	return nil
}
