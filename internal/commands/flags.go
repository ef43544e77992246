// Package commands wires the CLI commands for parley.
package commands

import (
	"os"
	"path/filepath"

	"github.com/parleyhq/parley/internal/core/config"
	"github.com/parleyhq/parley/internal/transport"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Project    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Backend clients, constructed in the Before hook
	History transport.History
	Stream  transport.Stream
	Actions transport.Actions
}

// ProjectID returns the project to operate on: the --project flag, falling
// back to the configured default.
func (f *Flags) ProjectID() string {
	if f.Project != "" {
		return f.Project
	}
	if f.Config != nil {
		return f.Config.Project
	}
	return ""
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "parley", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "parley")
}
