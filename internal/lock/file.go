//go:build unix

package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// FileLocker takes an exclusive flock(2) on a lock file. Locks are bound to
// the open file description, so they exclude other processes as well as other
// goroutines of the same process.
type FileLocker struct {
	path     string
	timeout  time.Duration
	interval time.Duration
}

// NewFileLocker returns a locker for path. A non-positive timeout selects
// DefaultTimeout.
func NewFileLocker(path string, timeout time.Duration) *FileLocker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FileLocker{
		path:     path,
		timeout:  timeout,
		interval: defaultPollInterval,
	}
}

// Acquire blocks until the lock is held, the timeout elapses or ctx is done.
func (l *FileLocker) Acquire(ctx context.Context) (Lease, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", l.path, err)
	}

	err = poll(ctx, l.path, l.timeout, l.interval, func() (bool, error) {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, unix.EWOULDBLOCK), errors.Is(err, unix.EINTR):
			return false, nil
		default:
			return false, fmt.Errorf("flock %s: %w", l.path, err)
		}
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileLease{file: f}, nil
}

type fileLease struct {
	once sync.Once
	file *os.File
	err  error
}

// Release unlocks and closes the lock file. Calling it twice is a no-op.
func (l *fileLease) Release() error {
	l.once.Do(func() {
		unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		closeErr := l.file.Close()
		l.err = errors.Join(unlockErr, closeErr)
	})
	return l.err
}
