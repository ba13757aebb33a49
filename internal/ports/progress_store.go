package ports

import (
	"context"

	"github.com/nesciens/levitation/internal/domain"
)

// ProgressStore persists resume state between invocations.
// Implementations persist the state to disk (or other storage) atomically.
type ProgressStore interface {
	// Load retrieves the last saved progress.
	// Returns zero progress and nil error if none exists yet.
	// Returns an error only for actual read failures.
	Load(ctx context.Context) (domain.Progress, error)

	// Save persists the progress atomically. The implementation should use
	// atomic writes (e.g. write to temp file, then rename) so a crash never
	// leaves a torn progress file.
	Save(ctx context.Context, p domain.Progress) error
}
