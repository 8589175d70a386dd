// ABOUTME: Tests for configuration loading
// ABOUTME: Tests defaults, YAML overrides and per-section validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{"valid configuration", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Output.Backend = "pulse" }, "backend"},
		{"device rate too low", func(c *Config) { c.Output.DeviceRate = 100 }, "device_rate"},
		{"volume too high", func(c *Config) { c.Output.Volume = 101 }, "volume"},
		{"sample rate zero", func(c *Config) { c.Playback.SampleRate = 0 }, "sample_rate"},
		{"unknown encoding", func(c *Config) { c.Playback.Encoding = "mulaw" }, "encoding"},
		{"negative margin", func(c *Config) { c.Playback.SafetyMargin = -1 }, "safety_margin"},
		{"unknown kind", func(c *Config) { c.Source.Kind = "grpc" }, "kind"},
		{"text over websocket", func(c *Config) {
			c.Source.Kind = "websocket"
			c.Source.Text = "hello"
		}, "text"},
		{"metrics without address", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Address = ""
		}, "address"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "level"},
		{"empty log file", func(c *Config) { c.Logging.File = "" }, "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()

			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errorMsg, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	configContent := `
output:
  backend: malgo
  device_rate: 44100
playback:
  encoding: s16le
  safety_margin: 0.5
source:
  url: http://localhost:8080/v1/chat/completions
  text: hello there
metrics:
  enabled: true
logging:
  level: debug
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if config.Output.Backend != "malgo" || config.Output.DeviceRate != 44100 {
		t.Errorf("unexpected output config: %+v", config.Output)
	}
	if config.Playback.Encoding != "s16le" {
		t.Errorf("expected s16le, got %s", config.Playback.Encoding)
	}
	if config.Playback.GetSafetyMargin() != 500*time.Millisecond {
		t.Errorf("expected 500ms safety margin, got %v", config.Playback.GetSafetyMargin())
	}
	if config.Source.Text != "hello there" {
		t.Errorf("unexpected source config: %+v", config.Source)
	}

	// Unset fields keep their defaults
	if config.Playback.SampleRate != 24000 {
		t.Errorf("expected default sample rate, got %d", config.Playback.SampleRate)
	}
	if config.Output.Volume != 100 {
		t.Errorf("expected default volume, got %d", config.Output.Volume)
	}
	if config.Source.Kind != "sse" {
		t.Errorf("expected default kind, got %s", config.Source.Kind)
	}
	if !config.Metrics.Enabled || config.Metrics.Address != ":9464" {
		t.Errorf("unexpected metrics config: %+v", config.Metrics)
	}
	if config.Logging.Level != "debug" || config.Logging.File != "voicestream.log" {
		t.Errorf("unexpected logging config: %+v", config.Logging)
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	bad := filepath.Join(tmpDir, "bad.yaml")
	os.WriteFile(bad, []byte("output: [not, a, map"), 0644)
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got %v", err)
	}

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	os.WriteFile(invalid, []byte("output:\n  backend: alsa\n"), 0644)
	if _, err := Load(invalid); err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	config, err := LoadOrDefault("")
	if err != nil || config.Output.Backend != "oto" {
		t.Errorf("expected defaults for empty path, got %+v, %v", config, err)
	}

	config, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || config.Output.Backend != "oto" {
		t.Errorf("expected defaults for missing file, got %+v, %v", config, err)
	}
}
