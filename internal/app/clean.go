package app

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nesciens/levitation/internal/progress"
	"github.com/nesciens/levitation/internal/store"
)

// Clean removes the conversion state under dir: the record files, the
// progress file, the mark table and the lock file. Once an import has fully
// completed and the repository is packed, none of it is needed again.
func Clean(dir, marksPath string) error {
	if marksPath == "" {
		marksPath = filepath.Join(dir, DefaultMarksFile)
	}
	lock, err := progress.Lock(dir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := removeState(dir, marksPath); err != nil {
		return err
	}
	return removeFile(filepath.Join(dir, progress.LockFileName))
}

// removeState deletes everything a run records, leaving the lock file to
// its current holder.
func removeState(dir, marksPath string) error {
	names := append(store.FileNames(), progress.StateFileName)
	for _, name := range names {
		if err := removeFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return removeFile(marksPath)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
