package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs hands out run IDs shaped like UUIDv7 strings but numbered
// 1, 2, 3, ... so store records and golden reports are reproducible.
type SequentialRunIDs struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next run ID.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n)
}
