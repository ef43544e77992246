package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Mute = []string{"agent/*", "type/agent_handoff"}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_BadBaseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "no scheme", url: "localhost:8080"},
		{name: "bad scheme", url: "ftp://host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Server.BaseURL = tt.url

			err := cfg.Validate()

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Equal(t, "server.base_url", fieldErrs[0].Field)
		})
	}
}

func TestValidate_BadPageSize(t *testing.T) {
	cfg := validConfig(t)
	cfg.History.PageSize = -1

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Field, "history.page_size")
}

func TestValidate_BadMutePattern(t *testing.T) {
	cfg := validConfig(t)
	cfg.Mute = []string{"agent/[invalid"}

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Field, "mute[0]")
	assert.Contains(t, fieldErrs[0].Err.Error(), "invalid glob")
}

func TestValidateDeep_ConfigPathIsDirectory(t *testing.T) {
	cfg := validConfig(t)
	dir := t.TempDir()

	err := cfg.ValidateDeep(dir)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Err.Error(), "is a directory")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yml"), dataDir)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, 50, cfg.History.PageSize)
	assert.Equal(t, dataDir, cfg.DataDir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := filepath.Join(dataDir, "config.yml")
	content := `
server:
  base_url: https://assistant.example.com
project: proj-42
history:
  page_size: 25
mute:
  - type/agent_handoff
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, dataDir)

	require.NoError(t, err)
	assert.Equal(t, "https://assistant.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "proj-42", cfg.Project)
	assert.Equal(t, 25, cfg.History.PageSize)
	// Unset values still get defaults.
	assert.Equal(t, 3, cfg.TUI.NearBottomLines)
}

func TestIsMuted(t *testing.T) {
	cfg := validConfig(t)
	cfg.Mute = []string{"agent/qa-*", "type/stories_created"}

	assert.True(t, cfg.IsMuted("qa-runner", "text"))
	assert.True(t, cfg.IsMuted("analyst", "stories_created"))
	assert.False(t, cfg.IsMuted("analyst", "text"))
}
