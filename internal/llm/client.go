package llm

import (
	"context"
)

// LLMClient is the oracle boundary: a prompt in, raw text out. Callers own
// interpretation of the response and treat malformed output as "no result".
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type RerankerClient interface {
	Rank(ctx context.Context, query string, documents []string) ([]int, error)
}
