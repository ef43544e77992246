// Package config handles configuration loading and validation for parley.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Project string        `yaml:"project"`
	History HistoryConfig `yaml:"history"`
	TUI     TUIConfig     `yaml:"tui"`
	// Mute holds glob patterns matched against "agent/<name>" and
	// "type/<message_type>". Matching entries are hidden by the render
	// layer; the underlying timeline still contains them.
	Mute    []string `yaml:"mute"`
	DataDir string   `yaml:"-"` // set by caller, not from config file
}

// ServerConfig holds the backend endpoints.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// HistoryConfig controls history pagination.
type HistoryConfig struct {
	PageSize int `yaml:"page_size"`
}

// TUIConfig holds chat surface tuning knobs.
type TUIConfig struct {
	// NearBottomLines is the threshold, in lines above the bottom, within
	// which the viewport still counts as following the conversation.
	NearBottomLines int `yaml:"near_bottom_lines"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
		},
		History: HistoryConfig{
			PageSize: 50,
		},
		TUI: TUIConfig{
			NearBottomLines: 3,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided
// dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.History.PageSize == 0 {
		c.History.PageSize = defaults.History.PageSize
	}
	if c.TUI.NearBottomLines == 0 {
		c.TUI.NearBottomLines = defaults.TUI.NearBottomLines
	}
}

// IsMuted reports whether a message from the given agent with the given type
// tag matches any configured mute pattern.
func (c *Config) IsMuted(agent, messageType string) bool {
	for _, pattern := range c.Mute {
		for _, key := range []string{"agent/" + agent, "type/" + messageType} {
			if ok, err := doublestar.Match(pattern, key); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// TranscriptsDir returns the path where cached transcripts are stored.
func (c *Config) TranscriptsDir() string {
	return filepath.Join(c.DataDir, "transcripts")
}
