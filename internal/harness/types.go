package harness

import (
	"time"

	"github.com/projectatomic/commissaire-bootstrap/internal/bootstrap"
	"github.com/projectatomic/commissaire-bootstrap/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool

	// Reports holds one report per run, in order.
	Reports []*bootstrap.Report

	// Err is the error returned by the last run.
	Err error

	// Errors contains assertion failure messages.
	Errors []string

	// Delays are the retry waits requested across all runs.
	Delays []time.Duration

	// Store is the store after the last run.
	Store *testutil.FaultStore
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Last returns the report of the final run.
func (r *Result) Last() *bootstrap.Report {
	if len(r.Reports) == 0 {
		return nil
	}
	return r.Reports[len(r.Reports)-1]
}
