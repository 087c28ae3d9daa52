package testutil

import (
	"fmt"
	"sync"
)

// SeqRunIDs hands out run IDs "<prefix>-0001", "<prefix>-0002", ... so that
// golden run logs do not depend on random UUIDs.
type SeqRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqRunIDs creates a generator. An empty prefix means "run".
func NewSeqRunIDs(prefix string) *SeqRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SeqRunIDs{prefix: prefix}
}

// NewRunID returns the next ID in sequence.
func (g *SeqRunIDs) NewRunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
