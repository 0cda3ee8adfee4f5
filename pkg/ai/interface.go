package ai

import "context"

// ReasoningService is the single contract every AI provider implements:
// one prompt in, one text completion out. No streaming.
// Implement this interface to add new providers (Gemini, Ollama, OpenAI, etc.)
type ReasoningService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
