package engine

import "github.com/google/uuid"

// RunIDGenerator names the runs logged to the plan cache.
// Implemented by UUIDv7RunIDs (production) and testutil.SeqRunIDs (tests).
type RunIDGenerator interface {
	NewRunID() string
}

// UUIDv7RunIDs generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7RunIDs is stateless and safe for concurrent use.
type UUIDv7RunIDs struct{}

// NewRunID creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7RunIDs) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
