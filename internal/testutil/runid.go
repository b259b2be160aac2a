package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDGenerator returns predictable run ids: prefix-1, prefix-2,
// and so on.
//
// Runs recorded with it produce byte-identical history output, which keeps
// golden files stable.
type SequentialRunIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDGenerator creates a generator. An empty prefix means
// "run".
func NewSequentialRunIDGenerator(prefix string) *SequentialRunIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
