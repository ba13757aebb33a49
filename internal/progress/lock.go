package progress

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/nesciens/levitation/internal/domain"
)

// LockFileName is the advisory lock file under the working directory.
const LockFileName = "lock"

// FileLock holds the working directory's exclusive advisory lock for the
// lifetime of a pipeline instance. The kernel drops the lock if the process
// dies, so a crashed run never leaves the directory wedged.
type FileLock struct {
	f *os.File
}

// Lock takes the exclusive lock for dir, creating the directory when
// needed. It fails immediately with domain.ErrLocked when another process
// already holds it; waiting would only race two writers against the same
// record files.
func Lock(dir string) (*FileLock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, LockFileName), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, fmt.Errorf("%w: %s", domain.ErrLocked, dir)
		}
		return nil, err
	}
	return &FileLock{f: f}, nil
}

// Unlock releases the lock and closes the lock file.
func (l *FileLock) Unlock() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
