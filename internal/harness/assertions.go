package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cypherbuild/internal/canon"
)

// AssertionError is returned when an assertion fails.
// It includes the built text to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Cypher   string // Built text for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Cypher != "" {
		fmt.Fprintf(&buf, "\nBuilt query:\n")
		for _, line := range strings.Split(e.Cypher, "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// assertCypherContains checks that the built text contains a substring.
func assertCypherContains(result *Result, assertion Assertion) error {
	if strings.Contains(result.Cypher, assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCypherContains,
		Expected: fmt.Sprintf("text containing %q", assertion.Text),
		Actual:   "not found",
		Cypher:   result.Cypher,
	}
}

// assertCypherOrder checks that substrings appear in the given order.
// Each text is searched after the end of the previous match.
func assertCypherOrder(result *Result, assertion Assertion) error {
	offset := 0
	for i, text := range assertion.Texts {
		pos := strings.Index(result.Cypher[offset:], text)
		if pos < 0 {
			actual := fmt.Sprintf("missing %q", text)
			if i > 0 {
				actual = fmt.Sprintf("%q not found after %q", text, assertion.Texts[i-1])
			}
			return &AssertionError{
				Type:     AssertCypherOrder,
				Expected: fmt.Sprintf("texts in order: %q", assertion.Texts),
				Actual:   actual,
				Cypher:   result.Cypher,
			}
		}
		offset += pos + len(text)
	}
	return nil
}

// assertParamCount checks the size of the parameter table.
func assertParamCount(result *Result, assertion Assertion) error {
	if len(result.Params) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertParamCount,
		Expected: fmt.Sprintf("%d parameter(s)", assertion.Count),
		Actual:   fmt.Sprintf("%d parameter(s): %v", len(result.Params), sortedKeys(result.Params)),
		Cypher:   result.Cypher,
	}
}

// assertParamEquals checks one parameter binding. Values are compared in
// canonical JSON form so 1 (int) and 1 (int64) are equal.
func assertParamEquals(result *Result, assertion Assertion) error {
	actual, ok := result.Params[assertion.Key]
	if !ok {
		return &AssertionError{
			Type:     AssertParamEquals,
			Expected: fmt.Sprintf("parameter %s = %v", assertion.Key, assertion.Value),
			Actual:   fmt.Sprintf("no parameter %s (have %v)", assertion.Key, sortedKeys(result.Params)),
			Cypher:   result.Cypher,
		}
	}
	equal, err := canonicalEqual(actual, assertion.Value)
	if err != nil {
		return fmt.Errorf("param_equals %s: %w", assertion.Key, err)
	}
	if !equal {
		return &AssertionError{
			Type:     AssertParamEquals,
			Expected: fmt.Sprintf("parameter %s = %v", assertion.Key, assertion.Value),
			Actual:   fmt.Sprintf("parameter %s = %v", assertion.Key, actual),
			Cypher:   result.Cypher,
		}
	}
	return nil
}

// EvaluateAssertions runs all assertions against a result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCypherContains:
			err = assertCypherContains(result, a)
		case AssertCypherOrder:
			err = assertCypherOrder(result, a)
		case AssertParamCount:
			err = assertParamCount(result, a)
		case AssertParamEquals:
			err = assertParamEquals(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func canonicalEqual(a, b any) (bool, error) {
	left, err := canon.Marshal(a)
	if err != nil {
		return false, err
	}
	right, err := canon.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
