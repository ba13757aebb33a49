package progress

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nesciens/levitation/internal/domain"
)

func TestLockExcludesSecondHolder(t *testing.T) {
	dir := t.TempDir()

	l1, err := Lock(dir)
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}

	// flock treats independently opened descriptors as separate holders,
	// so a second Lock in the same process conflicts like a second process
	// would.
	if _, err := Lock(dir); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("second Lock: expected ErrLocked, got %v", err)
	}

	if err := l1.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	l2, err := Lock(dir)
	if err != nil {
		t.Fatalf("Lock after Unlock: %v", err)
	}
	if err := l2.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestLockCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")

	l, err := Lock(dir)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer l.Unlock()
}
