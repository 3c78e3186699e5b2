//go:build !unix

package lock

import (
	"context"
	"errors"
	"time"
)

// FileLocker is unavailable on platforms without flock(2).
type FileLocker struct {
	path string
}

// NewFileLocker returns a locker that always fails on this platform.
func NewFileLocker(path string, timeout time.Duration) *FileLocker {
	return &FileLocker{path: path}
}

// Acquire always fails; configure REDIS_URL to use the Redis lease instead.
func (l *FileLocker) Acquire(ctx context.Context) (Lease, error) {
	return nil, errors.ErrUnsupported
}
