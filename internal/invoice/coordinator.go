package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicetools/internal/lock"
	"invoicetools/internal/logger"
	"invoicetools/internal/metrics"
	"invoicetools/internal/storage"
)

// Coordinator serializes index-affecting mutations behind one store-wide
// lease and rebuilds the index before the lease is released.
type Coordinator struct {
	store   *storage.FileStore
	locker  lock.Locker
	metrics *metrics.Metrics
}

// NewCoordinator composes the store with a locker.
func NewCoordinator(store *storage.FileStore, locker lock.Locker, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		store:   store,
		locker:  locker,
		metrics: m,
	}
}

// Exclusive runs fn while holding the lease. The lease is released on every
// exit path, including panics inside fn.
func (c *Coordinator) Exclusive(ctx context.Context, op string, fn func() error) (err error) {
	log := logger.WithOperation("coordinator", op, "")

	start := time.Now()
	lease, err := c.locker.Acquire(ctx)
	waited := time.Since(start)
	c.metrics.ObserveLockWait(waited, errors.Is(err, lock.ErrLockTimeout))
	if err != nil {
		log.Warn().Err(err).Dur("waited", waited).Msg("Write lock not acquired")
		return err
	}
	log.Debug().Dur("waited", waited).Msg("Write lock acquired")

	defer func() {
		if relErr := lease.Release(); relErr != nil {
			log.Error().Err(relErr).Msg("Failed to release write lock")
			if err == nil {
				err = fmt.Errorf("release write lock: %w", relErr)
			}
		}
	}()

	if err := c.store.EnsureStructure(); err != nil {
		return err
	}
	return fn()
}

// Mutate runs fn under the lease, then rebuilds and persists the index. If fn
// or the rebuild fails, the previous index.json stays in place.
func (c *Coordinator) Mutate(ctx context.Context, op string, fn func() error) error {
	log := logger.WithOperation("coordinator", op, "")

	err := c.Exclusive(ctx, op, func() error {
		if err := fn(); err != nil {
			return err
		}

		idx, err := c.store.RebuildIndex()
		if err != nil {
			log.Error().Err(err).Msg("Index rebuild failed, previous index kept")
			return err
		}
		return c.store.SaveIndex(idx)
	})
	c.metrics.ObserveMutation(op, err)
	return err
}
