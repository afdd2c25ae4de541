package harness

import "github.com/roach88/stakewake/internal/ir"

// StepResult records how one step ended.
type StepResult struct {
	Index   int    `json:"index"`
	Op      string `json:"op,omitempty"`
	As      string `json:"as,omitempty"`
	Advance string `json:"advance,omitempty"`
	// Code is the rejection code, empty on success.
	Code string `json:"code,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step ended as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Events is the full event log after the last step.
	Events []ir.Event `json:"events"`

	// Errors lists every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Events: []ir.Event{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// EventKinds returns the kinds of the recorded events in log order.
func (r *Result) EventKinds() []string {
	kinds := make([]string, len(r.Events))
	for i, e := range r.Events {
		kinds[i] = string(e.Kind)
	}
	return kinds
}
