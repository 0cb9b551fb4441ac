package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type StoreConfig struct {
	// Path to the sqlite database file. Empty means the in-memory fallback
	// store, which only makes sense for demos and tests.
	Path string `toml:"path"`
}

type MemoryConfig struct {
	TopK      int     `toml:"top_k"`
	Threshold float64 `toml:"threshold"`
	Rerank    bool    `toml:"rerank"`
}

// Prompts holds the oracle prompt templates. Each template is a
// fmt.Sprintf format string; see config/config.toml for the arguments.
type Prompts struct {
	System string `toml:"system"`
	Facts  string `toml:"facts"`
	Events string `toml:"events"`
}

type Config struct {
	LLM     LLMConfig    `toml:"llm"`
	Store   StoreConfig  `toml:"store"`
	Memory  MemoryConfig `toml:"memory"`
	Prompts Prompts      `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if cfg.Memory.TopK == 0 {
		cfg.Memory.TopK = 5
	}
	if cfg.Memory.Threshold == 0 {
		cfg.Memory.Threshold = 0.5
	}

	return &cfg, nil
}
