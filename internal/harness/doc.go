// Package harness runs conformance scenarios against the cascade engine.
//
// A scenario is a YAML file describing a board, a trigger, and
// assertions; the harness builds the board, fires one chain through a
// deterministically wired processor, and checks the assertions. Golden
// trace files (canonical JSON, compared via goldie) pin the exact
// execution order of the core scenarios.
//
// The harness is used two ways: by package tests (see scenario_test.go
// and golden_test.go) and by the CLI's run command, which executes a
// scenario file and prints or journals its trace.
package harness
