package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LEVITATION_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("workdir", os.Getenv("LEVITATION_WORKDIR"), &cfg.WorkDir)
	s.setString("marks", os.Getenv("LEVITATION_MARKS"), &cfg.Marks)
	s.setString("branch", os.Getenv("LEVITATION_BRANCH"), &cfg.Branch)
	s.setString("committer", os.Getenv("LEVITATION_COMMITTER"), &cfg.Committer)

	if err := s.setIntFromString("max-pages", os.Getenv("LEVITATION_MAX_PAGES"), &cfg.MaxPages); err != nil {
		return err
	}
	if err := s.setIntFromString("deepness", os.Getenv("LEVITATION_DEEPNESS"), &cfg.Depth); err != nil {
		return err
	}

	if err := s.setDuration("poll", os.Getenv("LEVITATION_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}

	s.setBoolFromString("only-blobs", os.Getenv("LEVITATION_ONLY_BLOBS"), &cfg.OnlyBlobs)
	s.setBoolFromString("resume", os.Getenv("LEVITATION_RESUME"), &cfg.Resume)
	s.setBoolFromString("strict", os.Getenv("LEVITATION_STRICT"), &cfg.Strict)
	s.setBoolFromString("overwrite", os.Getenv("LEVITATION_OVERWRITE"), &cfg.Overwrite)
	s.setBoolFromString("follow", os.Getenv("LEVITATION_FOLLOW"), &cfg.Follow)

	return nil
}
