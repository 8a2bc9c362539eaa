package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Environment  string
	LogLevel     slog.Level
	RedisURL     string  // empty disables event broadcast and snapshot persistence
	DataDir      string  // directory holding scenarios/*.json
	ScenarioFile string  // default scenario; empty uses the built-in world
	ItemRange    float64 // 0 keeps the scenario's range
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	itemRange, err := parseFloat("ITEM_RANGE", 0)
	if err != nil {
		return nil, err
	}
	if itemRange < 0 {
		return nil, fmt.Errorf("ITEM_RANGE must not be negative, got %v", itemRange)
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:     os.Getenv("REDIS_URL"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		ScenarioFile: os.Getenv("SCENARIO_FILE"),
		ItemRange:    itemRange,
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
