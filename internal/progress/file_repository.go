package progress

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nesciens/levitation/internal/domain"
)

// StateFileName is the progress file under the working directory.
const StateFileName = "progress.json"

// FileRepository implements ports.ProgressStore using a JSON file.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a FileRepository for the given working directory.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

// Load retrieves the last saved progress from disk.
// Returns zero progress and nil error if no progress file exists.
func (r *FileRepository) Load(ctx context.Context) (domain.Progress, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Progress{}, nil
		}
		return domain.Progress{}, err
	}

	var p domain.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Progress{}, err
	}
	return p, nil
}

// Save persists the progress atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *FileRepository) Save(ctx context.Context, p domain.Progress) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.Path())
}

// Path returns the full path to the progress file.
func (r *FileRepository) Path() string {
	return filepath.Join(r.dir, StateFileName)
}
