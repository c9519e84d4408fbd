// Package config maps environment variables and vocabulary files into the
// strongly-typed settings the server and CLIs are wired from.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration.
type Config struct {
	// Server settings
	ServerPort string `env:"SERVER_PORT" envDefault:"3001"`
	Debug      bool   `env:"DEBUG"       envDefault:"false"`

	// Video platform API
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY,required"`

	// LLM verification endpoint (OpenAI-compatible)
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1/chat/completions"`
	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMModel   string `env:"LLM_MODEL"    envDefault:"llama-3.3-70b-versatile"`

	// Durable state
	SlangPath   string `env:"SLANG_DB_PATH" envDefault:"slang_database.json"`
	CacheDBPath string `env:"CACHE_DB_PATH" envDefault:"video_cache.db"`

	// Vocabulary file for the candidate extractor and topic expansion.
	// Optional; built-in defaults apply when empty.
	VocabPath string `env:"VOCAB_PATH"`

	// Cache behavior
	CacheTTL      time.Duration `env:"CACHE_TTL"            envDefault:"24h"`
	EvictSchedule string        `env:"CACHE_EVICT_SCHEDULE" envDefault:"@hourly"`
}

// Load parses environment variables into a [Config].
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
