package recfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ConflictError is returned by Put when an identifier is rewritten with
// content that differs from what is already on disk. The input is assumed
// identifier-stable, so this signals corrupt or mismatched input.
type ConflictError struct {
	Path string
	ID   uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("recfile: record %d in %s rewritten with different content", e.ID, e.Path)
}

// File is a direct-addressed array of fixed-size records. It is safe for a
// single writer; concurrent writers are not supported.
type File struct {
	f       *os.File
	path    string
	recSize int
}

// Open opens or creates the record file at path. recSize is the fixed record
// length in bytes; it must match across all openings of the same file.
func Open(path string, recSize int) (*File, error) {
	if recSize <= 0 {
		return nil, fmt.Errorf("recfile: record size must be positive, got %d", recSize)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{f: f, path: path, recSize: recSize}, nil
}

// RecordSize returns the fixed record length in bytes.
func (f *File) RecordSize() int { return f.recSize }

// Get reads the record for id into rec, which must be exactly one record
// long. It returns false when the slot is absent: beyond the end of the
// file, all zero, or torn at the tail by an interrupted write. rec is zeroed
// in the absent case.
func (f *File) Get(id uint64, rec []byte) (bool, error) {
	if len(rec) != f.recSize {
		return false, fmt.Errorf("recfile: buffer length %d, want %d", len(rec), f.recSize)
	}
	_, err := f.f.ReadAt(rec, int64(id)*int64(f.recSize))
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Beyond the end, or a tail record torn by an interrupted write.
			for i := range rec {
				rec[i] = 0
			}
			return false, nil
		}
		return false, err
	}
	if rec[0] == 0 {
		return false, nil
	}
	return true, nil
}

// Put writes rec as the record for id. Put is idempotent: rewriting a slot
// with identical bytes succeeds silently, while rewriting it with different
// bytes returns a *ConflictError. rec must be exactly one record long and
// its first byte must be nonzero.
func (f *File) Put(id uint64, rec []byte) error {
	if len(rec) != f.recSize {
		return fmt.Errorf("recfile: buffer length %d, want %d", len(rec), f.recSize)
	}
	if rec[0] == 0 {
		return fmt.Errorf("recfile: record %d has no present flag", id)
	}
	existing := make([]byte, f.recSize)
	ok, err := f.Get(id, existing)
	if err != nil {
		return err
	}
	if ok {
		if bytes.Equal(existing, rec) {
			return nil
		}
		return &ConflictError{Path: f.path, ID: id}
	}
	_, err = f.f.WriteAt(rec, int64(id)*int64(f.recSize))
	return err
}

// MaxID returns the largest identifier the file currently has room for, and
// false when the file is empty. Slots up to MaxID may still be absent.
func (f *File) MaxID() (uint64, bool, error) {
	fi, err := f.f.Stat()
	if err != nil {
		return 0, false, err
	}
	n := fi.Size() / int64(f.recSize)
	if n == 0 {
		return 0, false, nil
	}
	return uint64(n - 1), true, nil
}

// Sync flushes the file to stable storage.
func (f *File) Sync() error { return f.f.Sync() }

// Close closes the underlying file.
func (f *File) Close() error { return f.f.Close() }
