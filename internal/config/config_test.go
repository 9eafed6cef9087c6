package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port == "" {
		t.Errorf("Port default missing")
	}
	if cfg.GoogleCloudLocation == "" {
		t.Errorf("GoogleCloudLocation default missing")
	}
	if cfg.DefaultSpreadsheetName == "" {
		t.Errorf("DefaultSpreadsheetName default missing")
	}
}

func TestValidateRequiresProject(t *testing.T) {
	cfg := &Config{CredentialsFile: "credentials.json"}
	if err := cfg.Validate(); err == nil {
		t.Errorf("Validate() accepted empty GOOGLE_CLOUD_PROJECT")
	}

	cfg.GoogleCloudProject = "my-project"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() rejected valid config: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "Warning", want: slog.LevelWarn},
		{input: "ERROR", want: slog.LevelError},
		{input: "bogus", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
