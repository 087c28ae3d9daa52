// Package analysis derives diagnostics from a decision graph: arms no
// value reaches, redundant and/or operands, is-patterns decided by the
// static type, and switches that leave values unmatched.
//
// Reachability is read off the graph directly, since the builder never
// emits a leaf for an arm that earlier arms cover. Redundancy and
// impossibility ask the same bounded satisfiability question the builder
// uses. Exhaustiveness enumerates paths to the no-match terminal and
// renders the shortest one as a witness value.
package analysis
