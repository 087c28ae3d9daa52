// Package engine runs one construct through the whole pipeline.
//
// Process is the only entry point the CLI and harness need:
//
//  1. Validate the compiled construct (document rules, E1xx codes)
//  2. Look the construct up in the plan cache, if one is attached
//  3. On a miss, build the decision graph, analyze it and lower it
//  4. Record the plan and the run in the cache
//
// Builds of different constructs share nothing, so callers may process
// constructs concurrently. ProcessAll processes a document's constructs in
// declaration order, which keeps the run log deterministic.
//
// Cache keys cover the construct fingerprint (patterns, guards, arm text
// and every declared type) and the analysis and lowering options. A hit
// returns the stored dumps and diagnostics without building; callers that
// need the graph itself (to execute or render it) use Build.
package engine
