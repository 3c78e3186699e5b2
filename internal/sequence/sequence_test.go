package sequence

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newGenerator(t *testing.T) (*Generator, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sequence.json")
	clock := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return NewGenerator(path, WithClock(clock)), path
}

func TestNextIsDense(t *testing.T) {
	gen, _ := newGenerator(t)

	for i := 1; i <= 12; i++ {
		number, err := gen.Next(2024, "-")
		require.NoError(t, err)
		assert.Equal(t, Format(2024, "-", i), number)
	}
	assert.Equal(t, 12, gen.Peek(2024))
}

func TestNextSeparatorAndDefaultYear(t *testing.T) {
	gen, _ := newGenerator(t)

	number, err := gen.Next(0, "")
	require.NoError(t, err)
	assert.Equal(t, "20250001", number)

	number, err = gen.Next(0, "/")
	require.NoError(t, err)
	assert.Equal(t, "2025/0002", number)
}

func TestNextKeepsYearsApart(t *testing.T) {
	gen, path := newGenerator(t)

	_, err := gen.Next(2024, "-")
	require.NoError(t, err)
	_, err = gen.Next(2025, "-")
	require.NoError(t, err)
	number, err := gen.Next(2024, "-")
	require.NoError(t, err)
	assert.Equal(t, "2024-0002", number)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"counters": {"2024": 2, "2025": 1}}`, string(data))
}

func TestCorruptStateStartsFresh(t *testing.T) {
	gen, path := newGenerator(t)
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	number, err := gen.Next(2025, "-")
	require.NoError(t, err)
	assert.Equal(t, "2025-0001", number)
}

func TestNextRejectsInvalidYear(t *testing.T) {
	gen, _ := newGenerator(t)

	_, err := gen.Next(12345, "-")
	assert.Error(t, err)
}

// TestConcurrentCallersUnderMutex stands in for the write lease: as long as
// callers are serialized, no number repeats and none is skipped.
func TestConcurrentCallersUnderMutex(t *testing.T) {
	gen, _ := newGenerator(t)

	const callers = 40
	var (
		mu      sync.Mutex
		numbers = make(map[string]int)
	)

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			mu.Lock()
			defer mu.Unlock()
			number, err := gen.Next(2025, "-")
			if err != nil {
				return err
			}
			numbers[number]++
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, numbers, callers)
	for i := 1; i <= callers; i++ {
		assert.Equal(t, 1, numbers[Format(2025, "-", i)])
	}
}
