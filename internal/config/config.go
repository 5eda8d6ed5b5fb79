package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client.
type Config struct {
	AuthURL    string
	ProfileURL string
	ChatURL    string

	SessionFile string
	Env         string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		AuthURL:     getEnv("AUTH_URL", "http://localhost:8000/auth/api/v1"),
		ProfileURL:  getEnv("PROFILE_URL", "http://localhost:8001/profile/api/v1"),
		ChatURL:     getEnv("CHAT_URL", "http://localhost:8002/chat/api/v1"),
		SessionFile: os.Getenv("SESSION_FILE"),
		Env:         getEnv("ENV", "development"),
	}

	if cfg.SessionFile == "" {
		home, _ := os.UserHomeDir()
		cfg.SessionFile = filepath.Join(home, ".vestnik", "session.json")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
