package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/cypherbuild/cypher"
	"github.com/roach88/cypherbuild/internal/querydef"
)

// Harness runs scenarios with a shared logger.
type Harness struct {
	logger *slog.Logger
}

// New creates a harness that logs build records to logger. A nil logger
// discards them.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a scenario with a discarding logger.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Build the embedded definition
// 2. Compare against the expectation, if any
// 3. Evaluate assertions against the built text and parameters
//
// The returned error is reserved for harness failures; a build that does
// not match the scenario is reported through Result.Errors.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}

	result := NewResult()
	built, buildErr := querydef.Build(&scenario.Definition, cypher.WithLogger(h.logger))
	if buildErr != nil {
		result.BuildError = buildErr.Error()
	} else {
		result.Cypher = built.Cypher
		result.Params = built.Params
		fp, err := built.Fingerprint()
		if err != nil {
			return nil, fmt.Errorf("fingerprint build: %w", err)
		}
		result.Fingerprint = fp
	}

	if err := h.checkExpectation(scenario.Expect, buildErr, result); err != nil {
		return nil, err
	}

	if buildErr == nil {
		for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
			result.AddError(msg)
		}
	} else if scenario.Expect == nil || scenario.Expect.Error == "" {
		result.AddError(fmt.Sprintf("build failed: %v", buildErr))
	}

	h.logger.Debug("scenario complete",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))

	return result, nil
}

func (h *Harness) checkExpectation(expect *Expectation, buildErr error, result *Result) error {
	if expect == nil {
		return nil
	}

	if expect.Error != "" {
		switch {
		case buildErr == nil:
			result.AddError(fmt.Sprintf("expected build error containing %q, build succeeded", expect.Error))
		case !strings.Contains(buildErr.Error(), expect.Error):
			result.AddError(fmt.Sprintf("expected build error containing %q, got %q", expect.Error, buildErr.Error()))
		}
		return nil
	}

	if buildErr != nil {
		return nil
	}

	if result.Cypher != expect.Cypher {
		result.AddError(fmt.Sprintf("cypher mismatch:\n--- expected\n%s\n--- actual\n%s", expect.Cypher, result.Cypher))
	}

	expected := expect.Params
	if expected == nil {
		expected = map[string]any{}
	}
	equal, err := canonicalEqual(result.Params, expected)
	if err != nil {
		return fmt.Errorf("compare params: %w", err)
	}
	if !equal {
		result.AddError(fmt.Sprintf("params mismatch: expected %v, got %v", expected, result.Params))
	}
	return nil
}
