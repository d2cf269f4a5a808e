// Package report defines the results.json data model and its encoding.
package report

import (
	"errors"
	"fmt"
)

// SchemaVersion identifies the shape of results.json.
const SchemaVersion = 1

// FileName is the name of the report written into the output directory.
const FileName = "results.json"

// Status is a pass/fail verdict for a test or a whole run.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// StatusOf maps a boolean verdict onto a Status.
func StatusOf(passed bool) Status {
	if passed {
		return StatusPass
	}
	return StatusFail
}

// TestOutcome captures the terminal result of a single test.
type TestOutcome struct {
	Name          string  `json:"name"`
	Status        Status  `json:"status"`
	Message       *string `json:"message"`
	LineNo        *int    `json:"line_no"`
	ExecutionTime string  `json:"execution_time"`
	Score         int     `json:"score"`
}

// Passed reports whether the test passed.
func (o TestOutcome) Passed() bool {
	return o.Status == StatusPass
}

// Report is the versioned summary of one test run.
type Report struct {
	Version       int           `json:"version"`
	Status        Status        `json:"status"`
	Tests         []TestOutcome `json:"tests"`
	MaxScore      *int          `json:"max_score,omitempty"`
	ComputedScore *int          `json:"computed_score,omitempty"`
}

// Counts returns the number of passed and failed outcomes.
func (r Report) Counts() (passed, failed int) {
	for _, t := range r.Tests {
		if t.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// ErrInvalid wraps every invariant violation reported by Check.
var ErrInvalid = errors.New("invalid report")

// Check verifies the invariants that the JSON schema cannot express.
func (r Report) Check() error {
	if r.Version != SchemaVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrInvalid, r.Version, SchemaVersion)
	}
	if r.ComputedScore == nil {
		return nil
	}
	if r.MaxScore == nil {
		return fmt.Errorf("%w: computed_score without max_score", ErrInvalid)
	}
	if *r.ComputedScore < 0 || *r.ComputedScore > *r.MaxScore {
		return fmt.Errorf("%w: computed_score %d outside [0, %d]", ErrInvalid, *r.ComputedScore, *r.MaxScore)
	}
	return nil
}
