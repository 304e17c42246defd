package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/amit-batra/playing-with-llama/internal/llm"
)

// DefaultSystemPrompt is applied to every query unless SYSTEM_PROMPT overrides it.
const DefaultSystemPrompt = llm.DefaultSystemPrompt

// RunsDBDisabled turns off run history when used as RUNS_DB_PATH.
const RunsDBDisabled = "off"

// Config holds all configuration for the application.
type Config struct {
	LLMBackend     string
	LLMBaseURL     string
	LLMModelName   string
	LLMAPIKey      string
	SystemPrompt   string
	BatchSize      int
	MaxConcurrency int
	CallTimeout    time.Duration
	RunsDBPath     string
	APIPort        string
	LogLevel       slog.Level
	LogFormat      string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or up to five parents, it is loaded.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBackend:   strings.ToLower(getEnv("LLM_BACKEND", "ollama")),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:11434"),
		LLMModelName: getEnv("LLM_MODEL", llm.DefaultModel),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		SystemPrompt: getEnv("SYSTEM_PROMPT", DefaultSystemPrompt),
		RunsDBPath:   getEnv("RUNS_DB_PATH", "./data/playing-with-llama.db"),
		APIPort:      getEnv("API_PORT", "9000"),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.LLMBackend {
	case "ollama", "openai":
	default:
		return nil, fmt.Errorf("LLM_BACKEND must be one of ollama, openai: got %q", cfg.LLMBackend)
	}

	if cfg.BatchSize, err = getPositiveInt("BATCH_SIZE", 3); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency, err = getPositiveInt("MAX_CONCURRENCY", 3); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(getEnv("CALL_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("CALL_TIMEOUT must be a valid duration: %w", err)
	}
	if timeout < 0 {
		return nil, fmt.Errorf("CALL_TIMEOUT must not be negative")
	}
	cfg.CallTimeout = timeout

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json: got %q", cfg.LogFormat)
	}

	if cfg.RunHistoryEnabled() {
		dataDir := filepath.Dir(cfg.RunsDBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// RunHistoryEnabled reports whether dispatch runs should be persisted.
func (c *Config) RunHistoryEnabled() bool {
	return c.RunsDBPath != "" && c.RunsDBPath != RunsDBDisabled
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be at least 1", key)
	}
	return n, nil
}
