// Package config loads client configuration from the environment,
// with a .env file as an optional local override.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration

	FirebaseAPIKey    string
	FirebaseProjectID string

	GoogleClientID     string
	GoogleClientSecret string

	PrefsPath string
}

func Load() *Config {
	_ = godotenv.Load()

	requestTimeout := 15 * time.Second
	if raw := os.Getenv("API_REQUEST_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			requestTimeout = parsed
		}
	}

	return &Config{
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:3000"),
		RequestTimeout:     requestTimeout,
		FirebaseAPIKey:     getEnv("FIREBASE_API_KEY", ""),
		FirebaseProjectID:  getEnv("FIREBASE_PROJECT_ID", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		PrefsPath:          getEnv("PREFS_PATH", "taskverse.db"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
