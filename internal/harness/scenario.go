package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cypherbuild/internal/querydef"
)

// Scenario defines a conformance scenario for one query definition.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definition is the query definition under test.
	Definition querydef.Definition `yaml:"definition"`

	// Expect is the expected build outcome. Optional when assertions
	// are present.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Assertions validate the built text and parameters.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation specifies the expected build outcome.
type Expectation struct {
	// Cypher is the exact expected text.
	Cypher string `yaml:"cypher,omitempty"`

	// Params is the exact expected parameter table.
	Params map[string]any `yaml:"params,omitempty"`

	// Error is a substring of the expected build error. When set, the
	// build must fail and Cypher and Params must be empty.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates part of the build result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "cypher_contains": Check the text contains Text
	// - "cypher_order": Check Texts appear in order
	// - "param_count": Check the table has exactly Count entries
	// - "param_equals": Check Key is bound to Value
	Type string `yaml:"type"`

	// Text is the expected substring (used by cypher_contains).
	Text string `yaml:"text,omitempty"`

	// Texts are the expected substrings in order (used by cypher_order).
	Texts []string `yaml:"texts,omitempty"`

	// Count is the expected number of parameters (used by param_count).
	Count int `yaml:"count,omitempty"`

	// Key is the parameter key (used by param_equals).
	Key string `yaml:"key,omitempty"`

	// Value is the expected parameter value (used by param_equals).
	Value any `yaml:"value,omitempty"`
}

// Assertion type constants
const (
	AssertCypherContains = "cypher_contains"
	AssertCypherOrder    = "cypher_order"
	AssertParamCount     = "param_count"
	AssertParamEquals    = "param_equals"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml or .yml scenario under dir in lexical
// order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Definition.Query) == 0 {
		return fmt.Errorf("definition.query is required and must be non-empty")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	if e := s.Expect; e != nil {
		if e.Error == "" && e.Cypher == "" {
			return fmt.Errorf("expect: cypher or error is required")
		}
		if e.Error != "" && (e.Cypher != "" || len(e.Params) > 0) {
			return fmt.Errorf("expect: error excludes cypher and params")
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCypherContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for cypher_contains", index)
		}
	case AssertCypherOrder:
		if len(a.Texts) < 2 {
			return fmt.Errorf("assertions[%d]: at least two texts are required for cypher_order", index)
		}
	case AssertParamCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for param_count", index)
		}
	case AssertParamEquals:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for param_equals", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
