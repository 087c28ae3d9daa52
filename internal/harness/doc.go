// Package harness provides scenario testing for the matching engine.
//
// A scenario compiles one construct from CUE documents, processes it with
// the engine, and checks the analysis, sample runs and graph shape.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: tuple_no_match
//	description: "What this scenario validates"
//	specs:
//	  - ../specs/pairs.cue
//	construct: Pair
//	config:
//	  lower.dispatch_threshold: 2
//	expect:
//	  diagnostics: [PM0107]
//	  exhaustive: false
//	  witness: "(0, _)"
//	runs:
//	  - input: { tuple: [3, 4] }
//	    arm: 0
//	  - input: { tuple: [1, 2] }
//	    fail: "SwitchExpressionException: unmatched value (1, 2)"
//	assertions:
//	  - type: diagnostic
//	    code: PM0107
//	    severity: warning
//	  - type: shared_nodes
//	    arms: [0, 1]
//	    min: 2
//
// Spec paths are relative to the scenario file. Inputs use the tagged
// value forms of ir.ConvertToIRValue.
//
// # Assertion Types
//
//   - diagnostic: a diagnostic with the code (and subject, severity, arm
//     when given) was reported
//   - shared_nodes: the listed arms' paths share at least min nodes
//   - graph_contains, plan_contains: the dump or plan listing contains text
//   - dispatches: the plan has exactly count dispatch operations
//   - equivalence: graph walk, plan execution and direct first-match
//     evaluation agree on every listed value and every run input
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory plan cache with a
// sequential clock and run IDs, so snapshots are identical across runs and
// can be compared against golden files (RunWithGolden).
package harness
