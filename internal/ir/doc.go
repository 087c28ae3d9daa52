// Package ir provides the value representation shared by the matching engine.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. Values appear in two roles:
//
//   - constants carried by constant and relational patterns
//   - runtime values fed to graph walks and plan execution in tests and the CLI
//
// Key design constraints:
//   - IRValue is sealed; only the types in value.go implement it
//   - floats are allowed and NaN is a first-class value (pattern semantics
//     depend on it), so canonical JSON encodes floats as tagged strings
//   - canonical JSON is the only input to content-addressed fingerprints
package ir
