package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and pointers for
// scalars whose zero value is meaningful, to make TOML friendly.
type FileConfig struct {
	WorkDir      string   `toml:"workdir"`
	Marks        string   `toml:"marks"`
	MaxPages     *int     `toml:"max_pages"`
	Deepness     *int     `toml:"deepness"`
	Branch       string   `toml:"branch"`
	Committer    string   `toml:"committer"`
	PollInterval string   `toml:"poll_interval"`
	OnlyBlobs    *bool    `toml:"only_blobs"`
	Resume       *bool    `toml:"resume"`
	Strict       *bool    `toml:"strict"`
	Overwrite    *bool    `toml:"overwrite"`
	Follow       *bool    `toml:"follow"`
	Parts        []string `toml:"parts"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.levitation/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".levitation", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map). Part paths
// from the file are used only when none came from the command line.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("workdir", fc.WorkDir, &cfg.WorkDir)
	s.setString("marks", fc.Marks, &cfg.Marks)
	s.setString("branch", fc.Branch, &cfg.Branch)
	s.setString("committer", fc.Committer, &cfg.Committer)

	s.setInt("max-pages", fc.MaxPages, &cfg.MaxPages)
	s.setInt("deepness", fc.Deepness, &cfg.Depth)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}

	s.setBool("only-blobs", fc.OnlyBlobs, &cfg.OnlyBlobs)
	s.setBool("resume", fc.Resume, &cfg.Resume)
	s.setBool("strict", fc.Strict, &cfg.Strict)
	s.setBool("overwrite", fc.Overwrite, &cfg.Overwrite)
	s.setBool("follow", fc.Follow, &cfg.Follow)

	if len(cfg.Parts) == 0 {
		cfg.Parts = fc.Parts
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
