package ai

import (
	"fmt"

	"github.com/Zer-0ne/secufi-backend/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Gemini config
	GeminiAPIKey string

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// NewReasoningService creates a ReasoningService based on the config.
// This is the factory function - switch AI provider by changing config.Provider
func NewReasoningService(cfg Config) (ReasoningService, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return gemini.NewGeminiService(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// "auto": prefer Gemini with Ollama as fallback when both are
		// configured, otherwise whichever is available.
		if cfg.GeminiAPIKey != "" {
			g := gemini.NewGeminiService(cfg.GeminiAPIKey)
			if cfg.OllamaBaseURL != "" {
				return NewFallbackService(g, NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)), nil
			}
			return g, nil
		}
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	}
}
