// Package types models the static types patterns are checked against.
//
// The matching engine consumes resolved types; it never parses source.
// A Universe holds the builtin types (object, bool, char, the integral
// and floating types, string, and the structural ITuple contract) plus
// user-declared classes, structs, interfaces and enums. Constructed
// types (T?, T[], *T, tuples) are interned so identity comparison works.
//
// The Oracle interface is the read-only symbol context handed to the
// graph builder: deconstruction candidates, member lookup, list shapes.
// Tests may substitute their own implementation.
package types
