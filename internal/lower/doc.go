// Package lower turns a decision graph into an ordered operation plan for
// code generation, and can execute that plan against runtime values.
//
// The plan follows the graph's canonical order, so an evaluation shared in
// the graph is performed once in the plan. Runs of equality tests on one
// temp become a binary-search dispatch when the domain is totally ordered
// (integers, chars, enums, strings). Floating comparisons are never
// regrouped, because NaN is unordered.
//
// A switch expression that matches no arm raises the failure chosen by
// ChooseFailure. Other constructs simply end without an arm.
package lower
