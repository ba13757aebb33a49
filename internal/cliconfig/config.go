package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nesciens/levitation/internal/app"
	"github.com/nesciens/levitation/pkg/fastimport"
)

// Config holds CLI configuration for levitation.
type Config struct {
	WorkDir string
	Marks   string

	MaxPages int
	Depth    int

	Branch    string
	Committer string

	PollInterval time.Duration

	OnlyBlobs bool
	Resume    bool
	Strict    bool
	Overwrite bool
	Follow    bool

	// Parts are the dump part paths, from positional arguments or the
	// config file. Empty means the dump is read from stdin.
	Parts []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		WorkDir:      app.DefaultWorkDir,
		MaxPages:     app.DefaultMaxPages,
		Depth:        app.DefaultDepth,
		Branch:       app.DefaultBranch,
		Committer:    app.DefaultCommitter,
		PollInterval: app.DefaultPollInterval,
		Resume:       true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("workdir is required")
	}
	if c.MaxPages == 0 || c.MaxPages < -1 {
		return fmt.Errorf("max-pages must be positive, or -1 for no limit")
	}
	if c.Depth < 0 {
		return fmt.Errorf("deepness must not be negative")
	}
	if _, err := fastimport.ParseIdent(c.Committer); err != nil {
		return fmt.Errorf("committer: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Follow && len(c.Parts) == 0 {
		return fmt.Errorf("follow requires part paths on the command line")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
// A pointer distinguishes an absent key from an explicit zero.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Out-of-range values are left for Validate to reject.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
