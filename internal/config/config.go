// Package config holds the BadBits configuration, loadable from a YAML file
// with environment variable expansion and overridable by CLI flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Notification method identifiers, in the order the dispatcher understands.
const (
	MethodDesktop  = "desktop"
	MethodSystem   = "system"
	MethodBrowser  = "browser"
	MethodDramatic = "dramatic"
	MethodSound    = "sound"
)

// Config is the full application configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Camera  CameraConfig  `yaml:"camera"`
	Model   ModelConfig   `yaml:"model"`
	Alerts  AlertsConfig  `yaml:"alerts"`
	History HistoryConfig `yaml:"history"`
	Archive ArchiveConfig `yaml:"archive"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Camera.Validate(); err != nil {
		return err
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if err := c.Alerts.Validate(); err != nil {
		return err
	}
	return c.Archive.Validate()
}

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel  slog.Level    `yaml:"log_level"`
	OutputDir string        `yaml:"output_dir"`
	Interval  time.Duration `yaml:"interval"`
	Track     bool          `yaml:"track"`
	Dashboard bool          `yaml:"dashboard"`
}

// Validate validates the application settings.
func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Interval, validation.Required, validation.Min(5*time.Second)),
	)
}

// CameraConfig controls device selection and capture retries.
type CameraConfig struct {
	Device       int   `yaml:"device"`
	Backups      []int `yaml:"backups"`
	WarmupFrames int   `yaml:"warmup_frames"`
	Retries      int   `yaml:"retries"`
}

// Devices returns the primary device followed by the backups.
func (c *CameraConfig) Devices() []int {
	return append([]int{c.Device}, c.Backups...)
}

// Validate validates the camera settings.
func (c *CameraConfig) Validate() error {
	if c.Device < 0 {
		return fmt.Errorf("camera: device must be >= 0, got %d", c.Device)
	}
	for _, id := range c.Backups {
		if id < 0 {
			return fmt.Errorf("camera: backup device must be >= 0, got %d", id)
		}
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Retries, validation.Min(1), validation.Max(10)),
	)
}

// ModelConfig points at the local Ollama instance and vision model.
type ModelConfig struct {
	BaseURL string `yaml:"base_url"`
	Port    int    `yaml:"port"`
	ID      string `yaml:"id"`
}

// Validate validates the model settings.
func (c *ModelConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ID, validation.Required),
	)
}

// AlertsConfig controls the notification dispatch chain.
type AlertsConfig struct {
	Methods []string `yaml:"methods"`
	Quiet   bool     `yaml:"quiet"`
}

// Validate validates the alert settings.
func (c *AlertsConfig) Validate() error {
	for _, m := range c.Methods {
		switch m {
		case MethodDesktop, MethodSystem, MethodBrowser, MethodDramatic, MethodSound:
		default:
			return fmt.Errorf("alerts: unknown method %q", m)
		}
	}
	return nil
}

// HistoryConfig holds the local SQLite check-history settings.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig holds the optional Postgres archive. All fields empty means
// the archive is disabled.
type ArchiveConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// Enabled reports whether a Postgres archive is configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.Host != ""
}

// Validate validates the archive settings when enabled.
func (c *ArchiveConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.DBName, validation.Required),
	)
}

// ConnString builds the Postgres connection string.
func (c *ArchiveConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Default returns a Config with sensible defaults for a local setup.
func Default() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  slog.LevelInfo,
			OutputDir: "posture_analysis",
			Interval:  60 * time.Second,
			Dashboard: true,
		},
		Camera: CameraConfig{
			Device:       0,
			WarmupFrames: 3,
			Retries:      3,
		},
		Model: ModelConfig{
			BaseURL: "http://localhost",
			Port:    11434,
			ID:      "moondream",
		},
		Alerts: AlertsConfig{
			Methods: []string{MethodDesktop, MethodSystem, MethodSound},
		},
		History: HistoryConfig{
			Path: "badbits.db",
		},
	}
}

// Load reads a YAML config file with environment variable expansion into cfg
// and validates the result.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}
