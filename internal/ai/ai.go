package ai

import (
	"context"
	"fmt"

	"docchat-platform/internal/config"
)

// Generator is the opaque text-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into fixed-dimension vectors. The same model
// configuration must be used at ingestion and query time, otherwise stored
// and query vectors live in different spaces.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider bundles generation and embeddings from one backend.
type Provider interface {
	Generator
	Embedder
	Close() error
}

// NewProvider selects the backend once at startup. Nothing re-resolves the
// provider per call.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return NewGeminiProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.EmbeddingsModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}
