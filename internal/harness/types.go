package harness

import "github.com/roach88/matchdag/internal/diag"

// RunRecord is one executed sample input.
type RunRecord struct {
	Input   string `json:"input"`
	Outcome string `json:"outcome"` // "arm 0 {x = 1}", "fail <message>" or "no match"
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation, run and assertion held.
	Pass bool `json:"pass"`

	Construct   string    `json:"construct"`
	Kind        string    `json:"kind"`
	Diagnostics diag.List `json:"diagnostics"`
	Graph       string    `json:"graph"`
	Plan        string    `json:"plan"`
	Runs        []RunRecord `json:"runs"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []RunRecord{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
