package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration, loaded from the environment.
type Config struct {
	Port        string
	FrontendURL string
	BackendURL  string

	GoogleCloudProject  string
	GoogleCloudLocation string

	CredentialsFile string
	TokenFile       string

	DefaultSpreadsheetName string

	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file if one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8000"),

		GoogleCloudProject:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GoogleCloudLocation: getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),

		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		TokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),

		DefaultSpreadsheetName: getEnv("SPREADSHEET_NAME", "Analisis Resume AI"),

		LogFile:  getEnv("LOG_FILE", "resume-screener.log"),
		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
	}
}

// Validate checks that configuration required before serving is present.
func (c *Config) Validate() error {
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.CredentialsFile == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
