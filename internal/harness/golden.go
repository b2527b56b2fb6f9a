package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cypherbuild/internal/canon"
)

// BuildSnapshot captures the build output of a scenario.
// All fields use canonical JSON serialization for deterministic comparison.
type BuildSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Cypher       string         `json:"cypher,omitempty"`
	Params       map[string]any `json:"params"`
	BuildError   string         `json:"build_error,omitempty"`
}

// toCanonicalMap converts a snapshot to a map for canonical JSON
// serialization, which does not handle structs.
func (s *BuildSnapshot) toCanonicalMap() map[string]any {
	params := s.Params
	if params == nil {
		params = map[string]any{}
	}
	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"params":        params,
	}
	if s.Cypher != "" {
		out["cypher"] = s.Cypher
	}
	if s.BuildError != "" {
		out["build_error"] = s.BuildError
	}
	return out
}

// RunWithGolden executes a scenario and compares the build output against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A mismatch with the
// golden file fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
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

// Snapshot returns the canonical golden file content for a result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := BuildSnapshot{
		ScenarioName: scenarioName,
		Cypher:       result.Cypher,
		Params:       result.Params,
		BuildError:   result.BuildError,
	}

	data, err := canon.Marshal(snapshot.toCanonicalMap())
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
