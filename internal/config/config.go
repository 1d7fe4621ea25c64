package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the preprocessor binary.
type Config struct {
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
}

// Load reads configuration from environment variables and returns a Config struct.
// If a .env file exists in the current directory or one of its parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// mdbook runs preprocessors from the book root; look there and a few levels up.
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LogFormat: strings.ToLower(getEnv("BACKLINKS_LOG_FORMAT", "text")),
	}

	level, err := parseLevel(getEnv("BACKLINKS_LOG_LEVEL", "warn"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("BACKLINKS_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("BACKLINKS_LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
