package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if the expectation and all assertions match.
	Pass bool `json:"pass"`

	// Cypher is the built query text. Empty when the build failed.
	Cypher string `json:"cypher,omitempty"`

	// Params is the built parameter table.
	Params map[string]any `json:"params,omitempty"`

	// Fingerprint identifies the build. Empty when the build failed.
	Fingerprint string `json:"fingerprint,omitempty"`

	// BuildError is the build failure message, if any.
	BuildError string `json:"build_error,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Params: map[string]any{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
