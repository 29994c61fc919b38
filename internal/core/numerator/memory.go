package numerator

import (
	"context"
	"sync"
	"time"
)

// MemoryGenerator keeps counters in memory. Use in tests and previews where
// names need not survive a restart.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryGenerator creates an empty in-memory generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

// Next implements Generator.
func (g *MemoryGenerator) Next(_ context.Context, series Series, at time.Time) (string, error) {
	key := series.Prefix(at)
	g.mu.Lock()
	g.counters[key]++
	n := g.counters[key]
	g.mu.Unlock()
	return series.Format(at, n), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MemoryGenerator)(nil)
