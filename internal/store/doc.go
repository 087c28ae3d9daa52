// Package store provides the SQLite-backed plan cache.
//
// The cache holds, per construct fingerprint and option set:
//   - Plans: the graph dump, the lowered plan listing and their fingerprints
//   - Diagnostics: the analysis findings, exhaustiveness and witness
//   - Runs: an append-only log of every construct processed, hit or miss
//
// # Keys
//
// A plan's key is the fingerprint of its construct fingerprint and its
// options fingerprint (see Key). Construct fingerprints cover the declared
// types, so changing a type invalidates every plan built against it.
//
// # Deterministic ordering
//
// Runs are stamped with a logical seq supplied by the caller, never a
// timestamp. Queries order by seq, then by key or id under BINARY collation.
//
// # Database configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
