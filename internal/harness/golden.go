package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rtmpl/internal/canon"
	"github.com/roach88/rtmpl/internal/report"
)

// Snapshot captures the resolved entries of a scenario execution.
// The collection hash is left out so that reformatting a collection file
// does not invalidate its golden file.
type Snapshot struct {
	ScenarioName string
	MaxDepth     int
	Entries      []report.Entry
}

// NewSnapshot builds a snapshot from a scenario result.
func NewSnapshot(scenarioName string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: scenarioName,
		MaxDepth:     result.Report.MaxDepth,
		Entries:      result.Report.Entries,
	}
}

// MarshalCanonical serializes the snapshot to canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	rep := &report.Report{Entries: s.Entries}
	return canon.MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"max_depth":     s.MaxDepth,
		"entries":       rep.CanonicalEntries(),
	})
}

// RunWithGolden executes a scenario and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
