package harness

import (
	"github.com/roach88/rtmpl/internal/report"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	// True if all expectations match.
	Pass bool `json:"pass"`

	// Errors contains expectation failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report is the resolved collection in collection order.
	Report *report.Report `json:"report"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
