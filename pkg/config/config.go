package config

import (
	"os"
	"strconv"
)

// Config carries the settings for the research engine, its collaborators and
// the entrypoints. Values come from the environment; entrypoints load .env
// via godotenv before calling Load.
type Config struct {
	OpenAIKey   string
	OpenAIModel string

	GeminiKey   string
	GeminiModel string

	FirecrawlKey     string
	FirecrawlBaseURL string
	MistralKey       string
	SearchProvider   string

	SearchLimit  int
	MaxLearnings int
	ContentLimit int

	Port string
}

func Load() *Config {
	return &Config{
		OpenAIKey:   getEnv("OPENAI_KEY", ""),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		GeminiKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel: getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),

		FirecrawlKey:     getEnv("FIRECRAWL_KEY", ""),
		FirecrawlBaseURL: getEnv("FIRECRAWL_BASE_URL", "https://api.firecrawl.com"),
		MistralKey:       getEnv("MISTRAL_API_KEY", ""),
		SearchProvider:   getEnv("SEARCH_PROVIDER", "firecrawl"),

		SearchLimit:  getEnvAsInt("SEARCH_LIMIT", 5),
		MaxLearnings: getEnvAsInt("MAX_LEARNINGS", 3),
		ContentLimit: getEnvAsInt("CONTENT_LIMIT", 25000),

		Port: getEnv("PORT", "8080"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
