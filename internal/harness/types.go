package harness

import "github.com/roach88/ruleflow/internal/ruleflow"

// StepOutcome records what one step did.
type StepOutcome struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Detail  string `json:"detail,omitempty"`
	Changed bool   `json:"changed"`
	Hash    string `json:"hash"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	Steps []StepOutcome `json:"steps"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the document after the last step.
	Final *ruleflow.Configuration `json:"-"`

	// Hash is the content hash of Final.
	Hash string `json:"hash"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
