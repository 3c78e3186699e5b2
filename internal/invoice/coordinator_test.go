//go:build unix

package invoice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"invoicetools/internal/lock"
	"invoicetools/internal/storage"
	"invoicetools/pkg/models"
)

func newCoordinator(t *testing.T) (*Coordinator, *storage.FileStore) {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), ".mad_invoice"))
	return NewCoordinator(store, lock.NewFileLocker(store.LockPath(), 200*time.Millisecond), nil), store
}

// lockFree reports whether another holder can take the lease right away.
func lockFree(t *testing.T, store *storage.FileStore) bool {
	t.Helper()
	lease, err := lock.NewFileLocker(store.LockPath(), 50*time.Millisecond).Acquire(context.Background())
	if err != nil {
		return false
	}
	require.NoError(t, lease.Release())
	return true
}

func TestMutateRebuildsIndexInsideLease(t *testing.T) {
	coord, store := newCoordinator(t)
	inv := models.ExampleInvoice(models.LanguageGerman)

	err := coord.Mutate(context.Background(), "create", func() error {
		assert.False(t, lockFree(t, store), "lease must be held during the mutation")
		return store.Save(&inv)
	})
	require.NoError(t, err)
	assert.True(t, lockFree(t, store))

	data, err := store.ReadIndex()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count": 1`)
}

func TestMutateReleasesLeaseOnError(t *testing.T) {
	coord, store := newCoordinator(t)
	boom := errors.New("boom")

	err := coord.Mutate(context.Background(), "update_draft", func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, lockFree(t, store))

	data, err := store.ReadIndex()
	require.NoError(t, err)
	assert.Nil(t, data, "a failed mutation must not write the index")
}

func TestMutateKeepsIndexWhenRebuildFails(t *testing.T) {
	coord, store := newCoordinator(t)
	first := models.ExampleInvoice(models.LanguageGerman)
	require.NoError(t, coord.Mutate(context.Background(), "create", func() error { return store.Save(&first) }))
	before, err := store.ReadIndex()
	require.NoError(t, err)

	err = coord.Mutate(context.Background(), "create", func() error {
		return os.WriteFile(filepath.Join(store.InvoicesDir(), "zz-broken.json"), []byte("{"), 0o644)
	})
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.True(t, lockFree(t, store))

	after, err := store.ReadIndex()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExclusiveReleasesLeaseOnPanic(t *testing.T) {
	coord, store := newCoordinator(t)

	assert.Panics(t, func() {
		_ = coord.Exclusive(context.Background(), "create", func() error { panic("unexpected") })
	})
	assert.True(t, lockFree(t, store))
}

func TestExclusiveReportsTimeout(t *testing.T) {
	coord, store := newCoordinator(t)
	held, err := lock.NewFileLocker(store.LockPath(), time.Second).Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	called := false
	err = coord.Exclusive(context.Background(), "create", func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, called)
}
