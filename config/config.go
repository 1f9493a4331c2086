// Package config provides configuration loading and management for semproposal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	ssconfig "github.com/c360studio/semstreams/config"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendNATS   = "nats"
	BackendMemory = "memory"
)

// Config represents the complete semproposal configuration
type Config struct {
	Owner    OwnerConfig    `yaml:"owner"`
	Storage  StorageConfig  `yaml:"storage"`
	NATS     NATSConfig     `yaml:"nats"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Sources  SourcesConfig  `yaml:"sources"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// OwnerConfig is the person new proposals are assigned to
type OwnerConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	AvatarURL string `yaml:"avatar_url,omitempty"`
}

// StorageConfig selects where proposals are persisted
type StorageConfig struct {
	// Backend is one of file, nats, or memory (default: file)
	Backend string `yaml:"backend"`
	// Path is the snapshot file for the file backend (default: ~/.local/share/semproposal/proposals.json)
	Path string `yaml:"path"`
	// Bucket is the JetStream KV bucket for the nats backend
	Bucket string `yaml:"bucket"`
	// Watch reloads the store when the snapshot file changes on disk
	Watch bool `yaml:"watch"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Timeout bounds connection and KV operations
	Timeout time.Duration `yaml:"timeout"`
}

// WorkflowConfig tunes proposal workflow rules
type WorkflowConfig struct {
	// StrictApprovals enforces the section approval state machine
	StrictApprovals bool `yaml:"strict_approvals"`
	// DueInDays is the due date offset for proposals created by chat
	DueInDays int `yaml:"due_in_days"`
	// LowConfidenceThreshold flags sections below this confidence in status output
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold"`
}

// SourcesConfig configures web source ingestion
type SourcesConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	MaxContentSize int64         `yaml:"max_content_size"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Owner: OwnerConfig{
			ID:    "user-1",
			Name:  "Current User",
			Email: "user@company.com",
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    "", // Resolved by Loader
			Bucket:  "SEMPROPOSAL_PROPOSALS",
		},
		NATS: NATSConfig{
			URL:     "nats://127.0.0.1:4222",
			Timeout: 5 * time.Second,
		},
		Workflow: WorkflowConfig{
			DueInDays:              30,
			LowConfidenceThreshold: 0.6,
		},
		Sources: SourcesConfig{
			Timeout:        30 * time.Second,
			UserAgent:      "semproposal/1.0",
			MaxContentSize: 5 * 1024 * 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendNATS, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be one of file, nats, memory; got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendNATS && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required for the nats backend")
	}
	if c.Owner.ID == "" || c.Owner.Name == "" {
		return fmt.Errorf("owner.id and owner.name are required")
	}
	if c.Workflow.DueInDays < 0 {
		return fmt.Errorf("workflow.due_in_days must not be negative")
	}
	if c.Workflow.LowConfidenceThreshold < 0 || c.Workflow.LowConfidenceThreshold > 1 {
		return fmt.Errorf("workflow.low_confidence_threshold must be between 0 and 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. ${VAR} and
// ${VAR:-default} references are expanded before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal([]byte(ssconfig.ExpandEnvWithDefaults(string(data))), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal encodes the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// Booleans can only be switched on by a later layer.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Owner
	if other.Owner.ID != "" {
		c.Owner.ID = other.Owner.ID
	}
	if other.Owner.Name != "" {
		c.Owner.Name = other.Owner.Name
	}
	if other.Owner.Email != "" {
		c.Owner.Email = other.Owner.Email
	}
	if other.Owner.AvatarURL != "" {
		c.Owner.AvatarURL = other.Owner.AvatarURL
	}

	// Storage
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Storage.Bucket != "" {
		c.Storage.Bucket = other.Storage.Bucket
	}
	if other.Storage.Watch {
		c.Storage.Watch = true
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Timeout != 0 {
		c.NATS.Timeout = other.NATS.Timeout
	}

	// Workflow
	if other.Workflow.StrictApprovals {
		c.Workflow.StrictApprovals = true
	}
	if other.Workflow.DueInDays != 0 {
		c.Workflow.DueInDays = other.Workflow.DueInDays
	}
	if other.Workflow.LowConfidenceThreshold != 0 {
		c.Workflow.LowConfidenceThreshold = other.Workflow.LowConfidenceThreshold
	}

	// Sources
	if other.Sources.Timeout != 0 {
		c.Sources.Timeout = other.Sources.Timeout
	}
	if other.Sources.UserAgent != "" {
		c.Sources.UserAgent = other.Sources.UserAgent
	}
	if other.Sources.MaxContentSize != 0 {
		c.Sources.MaxContentSize = other.Sources.MaxContentSize
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
