package extraction

import (
	"context"
)

type MockLLMClient struct {
	Response string
	Err      error
	// LastPrompt records the prompt of the most recent call.
	LastPrompt string
	Calls      int
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
