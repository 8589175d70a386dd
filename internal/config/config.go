// ABOUTME: YAML configuration for the voicestream CLI
// ABOUTME: Defines sections with defaults, loading and validation
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete player configuration
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Playback PlaybackConfig `yaml:"playback"`
	Source   SourceConfig   `yaml:"source"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OutputConfig selects the audio device
type OutputConfig struct {
	Backend    string `yaml:"backend"`     // oto, malgo or virtual
	DeviceRate int    `yaml:"device_rate"` // Hz
	Volume     int    `yaml:"volume"`      // 0-100
}

// PlaybackConfig contains scheduling parameters
type PlaybackConfig struct {
	SampleRate   int     `yaml:"sample_rate"`   // Hz, used when a chunk carries none
	Encoding     string  `yaml:"encoding"`      // f32le or s16le
	SafetyMargin float64 `yaml:"safety_margin"` // seconds
}

// SourceConfig locates the chunk stream
type SourceConfig struct {
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"` // sse, websocket or tone
	Text string `yaml:"text"` // optional prompt POSTed to an SSE endpoint
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Backend:    "oto",
			DeviceRate: 48000,
			Volume:     100,
		},
		Playback: PlaybackConfig{
			SampleRate:   24000,
			Encoding:     "f32le",
			SafetyMargin: 0.2,
		},
		Source: SourceConfig{
			Kind: "sse",
		},
		Metrics: MetricsConfig{
			Address: ":9464",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "voicestream.log",
		},
	}
}

// Load reads and parses the configuration file on top of the defaults
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty or missing
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	config, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates output configuration
func (o *OutputConfig) Validate() error {
	validBackends := map[string]bool{"oto": true, "malgo": true, "virtual": true}
	if !validBackends[o.Backend] {
		return fmt.Errorf("backend must be one of [oto, malgo, virtual], got '%s'", o.Backend)
	}

	if o.DeviceRate < 8000 || o.DeviceRate > 192000 {
		return fmt.Errorf("device_rate must be between 8000 and 192000 Hz, got %d", o.DeviceRate)
	}

	if o.Volume < 0 || o.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", o.Volume)
	}

	return nil
}

// Validate validates playback configuration
func (p *PlaybackConfig) Validate() error {
	if p.SampleRate < 8000 || p.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", p.SampleRate)
	}

	validEncodings := map[string]bool{"f32le": true, "s16le": true}
	if !validEncodings[p.Encoding] {
		return fmt.Errorf("encoding must be 'f32le' or 's16le', got '%s'", p.Encoding)
	}

	if p.SafetyMargin < 0 || p.SafetyMargin > 10 {
		return fmt.Errorf("safety_margin must be between 0 and 10 seconds, got %f", p.SafetyMargin)
	}

	return nil
}

// Validate validates source configuration. An empty URL is allowed; the CLI
// then requires one from its flags.
func (s *SourceConfig) Validate() error {
	validKinds := map[string]bool{"sse": true, "websocket": true, "tone": true}
	if !validKinds[s.Kind] {
		return fmt.Errorf("kind must be one of [sse, websocket, tone], got '%s'", s.Kind)
	}

	if s.Text != "" && s.Kind != "sse" {
		return fmt.Errorf("text can only be sent to an sse source")
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("address cannot be empty when metrics are enabled")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	if l.File == "" {
		return fmt.Errorf("file cannot be empty")
	}

	return nil
}

// GetSafetyMargin returns the safety margin as a time.Duration
func (p *PlaybackConfig) GetSafetyMargin() time.Duration {
	return time.Duration(p.SafetyMargin * float64(time.Second))
}
