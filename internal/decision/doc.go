// Package decision builds the shared decision graph for a construct: an
// is-expression, a switch statement or a switch expression.
//
// Each arm's pattern is first converted to a condition (Cond) over tests
// and evaluations of temps, values derived from the scrutinee. Identical
// derivations are deduplicated by Temps and identical tests are interned,
// so two arms that read the same member of the same value share one temp.
//
// The builder then walks the ordered arm conditions, always deciding the
// first undecided primitive of the first live arm, and records what each
// path has learned in Facts. Outcomes that Facts already decide are never
// asked again, which both narrows types along a path and makes later arms
// that an earlier arm fully covers unreachable. States are memoized and
// nodes are hash-consed, giving a DAG whose nodes are then renumbered
// canonically for dumps.
package decision
