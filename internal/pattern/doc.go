// Package pattern is the pattern model: an immutable tagged union over
// pattern shapes (discard, var, declaration, constant, relational,
// recursive, list, slice, not, and/or), already resolved against types.
//
// It also provides the surface-syntax printer, the structural validation
// that runs before graph construction, and Match, a direct recursive
// evaluator used as the reference semantics in tests.
package pattern
