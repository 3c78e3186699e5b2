// Package sequence mints per-year document numbers backed by sequence.json.
//
// The generator does no locking. Callers must hold the store-wide write lease
// so that the read-increment-write cycle is exclusive.
package sequence

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"invoicetools/internal/logger"
	"invoicetools/internal/storage"
)

// State is the persisted counter map, keyed by year.
type State struct {
	Counters map[string]int `json:"counters"`
}

// Generator issues document numbers of the form YYYY<sep>NNNN.
type Generator struct {
	path string
	now  func() time.Time
	log  zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the clock used when no year is given.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator returns a generator persisting its state at path.
func NewGenerator(path string, opts ...Option) *Generator {
	g := &Generator{
		path: path,
		now:  time.Now,
		log:  logger.WithComponent("sequence"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next increments the counter for year and returns the formatted number.
// A year of 0 selects the current year.
func (g *Generator) Next(year int, separator string) (string, error) {
	if year == 0 {
		year = g.now().Year()
	}
	if year < 1 || year > 9999 {
		return "", fmt.Errorf("invalid sequence year %d", year)
	}

	state := g.load()
	key := strconv.Itoa(year)
	next := state.Counters[key] + 1
	state.Counters[key] = next

	if err := storage.WriteJSON(g.path, state); err != nil {
		return "", fmt.Errorf("persist sequence: %w", err)
	}

	number := Format(year, separator, next)
	g.log.Debug().Str("number", number).Int("year", year).Msg("Document number issued")
	return number, nil
}

// Peek returns the last issued counter for year without changing state.
func (g *Generator) Peek(year int) int {
	return g.load().Counters[strconv.Itoa(year)]
}

// Format renders a document number.
func Format(year int, separator string, counter int) string {
	return fmt.Sprintf("%d%s%04d", year, separator, counter)
}

// load reads the persisted state. Missing or unreadable state counts as empty;
// the subsequent write happens inside the same critical section.
func (g *Generator) load() State {
	state := State{Counters: map[string]int{}}

	data, err := os.ReadFile(g.path)
	if err != nil {
		if !os.IsNotExist(err) {
			g.log.Warn().Err(err).Str("path", g.path).Msg("Sequence state unreadable, starting fresh")
		}
		return state
	}

	var parsed State
	if err := json.Unmarshal(data, &parsed); err != nil {
		g.log.Warn().Err(err).Str("path", g.path).Msg("Sequence state corrupt, starting fresh")
		return state
	}
	for year, counter := range parsed.Counters {
		if counter > 0 {
			state.Counters[year] = counter
		}
	}
	return state
}
