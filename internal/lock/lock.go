// Package lock provides the store-wide exclusive lease used by every
// mutation. Two mechanisms satisfy the same contract: an advisory file lock
// for processes sharing a filesystem, and a Redis lease for hosts that share
// a storage root over the network.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTimeout bounds how long Acquire waits for the lease.
	DefaultTimeout = 5 * time.Second

	defaultPollInterval = 25 * time.Millisecond
)

var (
	// ErrLockTimeout is returned when the lease cannot be acquired in time.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrNotHeld is returned when releasing a lease that is no longer held.
	ErrNotHeld = errors.New("lock not held")
)

// Locker hands out exclusive leases.
type Locker interface {
	Acquire(ctx context.Context) (Lease, error)
}

// Lease is held until Release is called.
type Lease interface {
	Release() error
}

// TimeoutError reports which lock could not be acquired and how long the
// caller waited.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("could not acquire lock %s within %s", e.Name, e.Timeout)
}

// Is makes errors.Is(err, ErrLockTimeout) hold.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrLockTimeout
}

// poll calls try until it reports success, fails, the timeout elapses or ctx
// is done.
func poll(ctx context.Context, name string, timeout, interval time.Duration, try func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Name: name, Timeout: timeout}
		}

		wait := interval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
