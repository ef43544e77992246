package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is structurally valid. It returns
// criterio.FieldErrors listing every failing field, or nil.
func (c *Config) Validate() error {
	var errs criterio.FieldErrors

	add := func(field string, err error) {
		errs = append(errs, criterio.FieldErrors{{Field: field, Err: err}}...)
	}

	if c.Server.BaseURL == "" {
		add("server.base_url", errors.New("cannot be empty"))
	} else if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("server.base_url", fmt.Errorf("not a valid URL: %q", c.Server.BaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.base_url", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	if c.DataDir == "" {
		add("data_dir", errors.New("data directory cannot be empty"))
	}

	if c.History.PageSize < 1 {
		add("history.page_size", errors.New("must be at least 1"))
	}

	if c.TUI.NearBottomLines < 1 {
		add("tui.near_bottom_lines", errors.New("must be at least 1"))
	}

	for i, pattern := range c.Mute {
		if !doublestar.ValidatePattern(pattern) {
			add(fmt.Sprintf("mute[%d]", i), fmt.Errorf("invalid glob pattern %q", pattern))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateDeep runs Validate plus file-access checks that only make sense
// when a config file path is known.
func (c *Config) ValidateDeep(configPath string) error {
	var errs criterio.FieldErrors

	if err := c.Validate(); err != nil {
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			errs = append(errs, fieldErrs...)
		} else {
			errs = append(errs, criterio.FieldErrors{{Err: err}}...)
		}
	}

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil && info.IsDir() {
			errs = append(errs, criterio.FieldErrors{{
				Field: "config",
				Err:   fmt.Errorf("%s is a directory, not a file", configPath),
			}}...)
		}
	}

	if c.DataDir != "" {
		if info, err := os.Stat(c.DataDir); err == nil && !info.IsDir() {
			errs = append(errs, criterio.FieldErrors{{
				Field: "data_dir",
				Err:   fmt.Errorf("%s exists but is not a directory", c.DataDir),
			}}...)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Warnings returns advisory findings that do not fail validation.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Project == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Project",
			Item:     "project",
			Message:  "no default project configured; pass --project to every command",
		})
	}

	if c.Server.APIKey == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "server.api_key",
			Message:  "no API key configured; the backend may reject requests",
		})
	}

	return warnings
}
