package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret string

	GoogleClientID     string
	GoogleClientSecret string

	AIProvider    string
	GeminiApiKey  string
	OllamaBaseURL string
	OllamaModel   string

	// Shared gate for model calls
	QueueConcurrency int
	QueueIntervalMs  int
	QueueIntervalCap int

	// External decoding subprocess
	ExtractorPython string
	ExtractorScript string

	// IMAP fallback provider
	IMAPHost string
	IMAPPort string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=secufi port=5432 sslmode=disable"),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiApiKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		QueueConcurrency: getEnvInt("AI_QUEUE_CONCURRENCY", 2),
		QueueIntervalMs:  getEnvInt("AI_QUEUE_INTERVAL_MS", 1000),
		QueueIntervalCap: getEnvInt("AI_QUEUE_INTERVAL_CAP", 2),

		ExtractorPython: getEnv("EXTRACTOR_PYTHON", "python3"),
		ExtractorScript: getEnv("EXTRACTOR_SCRIPT", "./scripts/extractor.py"),

		IMAPHost: getEnv("IMAP_HOST", "imap.gmail.com"),
		IMAPPort: getEnv("IMAP_PORT", "993"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
