package memory

import (
	"context"
	"fmt"
	"log"

	"github.com/reminisce-ai/reminisce/internal/core/common"
	"github.com/reminisce-ai/reminisce/internal/llm"
)

// FactCandidate is the wire shape the fact-extraction oracle returns.
type FactCandidate struct {
	Fact     string `json:"fact"`
	Category string `json:"category"`
}

// FactExtractor pulls durable personal facts out of a conversation
// transcript and saves them to the vector store. It runs on the background
// path of a turn, so every failure degrades to "nothing extracted".
type FactExtractor struct {
	LLM    llm.LLMClient
	Store  *Store
	Prompt string
}

func NewFactExtractor(llmClient llm.LLMClient, store *Store, prompt string) *FactExtractor {
	return &FactExtractor{LLM: llmClient, Store: store, Prompt: prompt}
}

// ExtractAndSave returns the facts it stored. Malformed oracle output or
// store failures are logged and yield an empty result.
func (f *FactExtractor) ExtractAndSave(ctx context.Context, userID, conversation string) []string {
	prompt := fmt.Sprintf(f.Prompt, conversation)
	response, err := f.LLM.Generate(ctx, prompt)
	if err != nil {
		log.Printf("facts: oracle call failed for user %s: %v", userID, err)
		return nil
	}

	candidates, err := common.ParseJSONArray[FactCandidate](response)
	if err != nil {
		log.Printf("facts: failed to parse oracle response: %v", err)
		return nil
	}

	var texts, categories []string
	for _, c := range candidates {
		if c.Fact == "" {
			continue
		}
		texts = append(texts, c.Fact)
		if c.Category == "" {
			c.Category = "general"
		}
		categories = append(categories, c.Category)
	}
	if len(texts) == 0 {
		return nil
	}

	if _, err := f.Store.SaveBatch(ctx, userID, texts, categories); err != nil {
		log.Printf("facts: failed to save facts for user %s: %v", userID, err)
		return nil
	}
	log.Printf("facts: saved %d facts for user %s", len(texts), userID)
	return texts
}
