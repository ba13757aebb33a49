package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nesciens/levitation/internal/domain"
	"github.com/nesciens/levitation/internal/progress"
)

func TestClean(t *testing.T) {
	cfg := newTestConfig(t)
	if _, _, err := runPipeline(t, cfg, wrap(cafePage)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// The backend would have written the mark table; fake one.
	if err := os.WriteFile(cfg.MarksPath, []byte(":1 aa\n"), 0o644); err != nil {
		t.Fatalf("write mark table: %v", err)
	}

	if err := Clean(cfg.WorkDir, cfg.MarksPath); err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}

	left, err := os.ReadDir(cfg.WorkDir)
	if err != nil {
		t.Fatalf("read workdir: %v", err)
	}
	for _, e := range left {
		t.Errorf("Clean left %s behind", e.Name())
	}
}

func TestCleanFreshDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-used")
	if err := Clean(dir, ""); err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
}

func TestCleanLocked(t *testing.T) {
	dir := t.TempDir()
	lock, err := progress.Lock(dir)
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}
	defer lock.Unlock()

	if err := Clean(dir, ""); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
