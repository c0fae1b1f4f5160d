package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries process-level settings resolved from the environment.
type Config struct {
	Addr         string
	DatabasePath string
	SessionTTL   time.Duration
	OllamaURL    string
}

// Load reads an optional .env file and resolves configuration with defaults
// suitable for a single-operator deployment.
func Load() *Config {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	ttlHours := getEnvInt("SESSION_TTL_HOURS", 12)

	return &Config{
		Addr:         getEnv("ADDR", ":8080"),
		DatabasePath: getEnv("DB_PATH", "personnel_system.db"),
		SessionTTL:   time.Duration(ttlHours) * time.Hour,
		OllamaURL:    getEnv("OLLAMA_URL", "http://127.0.0.1:11434"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
