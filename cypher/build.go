package cypher

import (
	"log/slog"
	"slices"

	"github.com/roach88/cypherbuild/internal/canon"
)

// Result is the output of one build: the Cypher text and the parameter
// table. It is not modified after Build returns.
type Result struct {
	Cypher string         `json:"cypher"`
	Params map[string]any `json:"params"`

	keys []string
}

// ParamKeys returns the parameter keys in first-encountered order.
func (r *Result) ParamKeys() []string {
	return slices.Clone(r.keys)
}

// Fingerprint returns a content hash of the text and the parameter table.
// Structurally identical builds share a fingerprint.
func (r *Result) Fingerprint() (string, error) {
	return canon.Fingerprint(r.Cypher, r.Params)
}

type buildConfig struct {
	prefix string
	logger *slog.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithPrefix prepends prefix to every auto-assigned variable name and
// parameter key, e.g. "sub_this0" and "sub_param0".
func WithPrefix(prefix string) BuildOption {
	return func(c *buildConfig) { c.prefix = prefix }
}

// WithLogger sets the logger for build diagnostics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = logger }
}

// Build compiles root into Cypher text and its parameter table.
//
// Build is the only place an Environment is created. It checks the tree
// for construction errors and shared clauses, reserves explicit names,
// compiles root once and resolves the parameters. Any error aborts the
// build; no partial Result is returned.
//
// The tree must not be modified while Build runs. Builder methods never
// mutate existing nodes, so a finished tree may be built any number of
// times, each build with a fresh Environment.
func Build(root Clause, opts ...BuildOption) (*Result, error) {
	cfg := buildConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if isNil(root) {
		return nil, newConstructionError("Build", "root clause is nil")
	}

	env := newEnvironment(cfg.prefix)
	if err := scanTree(env, root); err != nil {
		cfg.logger.Debug("cypher build rejected", "error", err)
		return nil, err
	}

	text, err := root.Compile(env)
	if err != nil {
		cfg.logger.Debug("cypher build failed", "error", err)
		return nil, err
	}

	params := env.ResolveParameters()
	result := &Result{
		Cypher: text,
		Params: params,
		keys:   env.ParameterKeys(),
	}

	cfg.logger.Debug("cypher build complete",
		"variables", len(env.varNames),
		"params", len(params),
		"max_depth", env.maxDepth,
		"bytes", len(text))

	return result, nil
}

// treeScan walks the tree before compilation.
type treeScan struct {
	env     *Environment
	clauses map[Clause]bool
}

// scanTree reserves explicit names and aliases, surfaces construction errors and
// rejects clause instances reachable from two parents.
func scanTree(env *Environment, root Node) error {
	s := &treeScan{env: env, clauses: make(map[Clause]bool)}
	return s.visit(root)
}

func (s *treeScan) visit(n Node) error {
	if isNil(n) {
		return nil
	}

	switch v := n.(type) {
	case Reference:
		if name := v.explicitName(); name != "" {
			s.env.reserveVariable(name)
		}
	case *Param:
		if v.name != "" {
			s.env.reserveParameter(v.name)
		}
	case *Alias:
		if v.alias != "" {
			s.env.reserveVariable(v.alias)
		}
	case *Pattern:
		if err := v.Err(); err != nil {
			return err
		}
	case Clause:
		if s.clauses[v] {
			return &Error{
				Code:    ErrCodeSharedClause,
				Message: "clause instance is attached to more than one parent",
				Node:    clauseName(v),
			}
		}
		s.clauses[v] = true
		if err := v.Err(); err != nil {
			return err
		}
	}

	for _, child := range n.Children() {
		if err := s.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func clauseName(c Clause) string {
	switch c.(type) {
	case *Match:
		return "Match"
	case *Create:
		return "Create"
	case *Merge:
		return "Merge"
	case *Set:
		return "Set"
	case *Delete:
		return "Delete"
	case *Unwind:
		return "Unwind"
	case *With:
		return "With"
	case *Return:
		return "Return"
	case *Call:
		return "Call"
	case *Concat:
		return "Concat"
	case *Union:
		return "Union"
	default:
		return "Clause"
	}
}
