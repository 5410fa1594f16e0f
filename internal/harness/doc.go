// Package harness runs conformance scenarios against the template resolver.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: self_reference
//	description: "A template that references itself hits an impasse"
//	max_depth: 9              # optional, defaults to 9
//	collection:               # inline, key order is preserved
//	  fail: "{{fail}}"
//	  truth: "it's true"
//	  with fail: "{{fail}} ({{truth}})"
//	order: [with fail, fail, truth]   # optional explicit entry order
//	expect:
//	  - key: with fail
//	    value: "fail (it's true)"
//	    impasse: [fail]
//
// Instead of an inline collection, collection_file names a .yaml, .json,
// .jsonc or .cue file relative to the scenario.
//
// Every expectation field except key is optional. Unreplaced and impasse
// compare as sets.
//
// # Golden Files
//
// RunWithGolden and AssertGolden compare a canonical snapshot of the
// resolved entries against testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
