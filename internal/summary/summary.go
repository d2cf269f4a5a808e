// Package summary folds classified runner events into a scored report.
package summary

import (
	"fmt"
	"iter"
	"strings"

	"github.com/bgricker/testgrade/internal/event"
	"github.com/bgricker/testgrade/internal/report"
)

// CountMode selects where the run's total test count comes from.
type CountMode int

const (
	// CountObserved uses the number of terminal test events.
	CountObserved CountMode = iota
	// CountDeclared uses the counts announced by suite "started" events,
	// raised to the observed count if the runner emitted more outcomes than
	// it declared. Missing terminal events then count as failures.
	CountDeclared
)

func (m CountMode) String() string {
	if m == CountDeclared {
		return "declared"
	}
	return "observed"
}

// ParseCountMode converts a user-supplied name into a CountMode.
func ParseCountMode(s string) (CountMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "observed":
		return CountObserved, nil
	case "declared":
		return CountDeclared, nil
	default:
		return CountObserved, fmt.Errorf("unknown count mode %q (expected observed, declared)", s)
	}
}

// Options tune how a Tally becomes a Report.
type Options struct {
	// MaxScore is the caller's score ceiling. When nil no score is computed.
	MaxScore *int
	Mode     CountMode
	// AllowEmpty treats a run with zero tests as passed. By default an
	// empty run fails.
	AllowEmpty bool
}

// Tally is the accumulator threaded through the fold.
type Tally struct {
	Outcomes []report.TestOutcome
	Passed   int
	// Declared sums test counts announced by suite events.
	Declared int
	Suites   int
}

// Observed returns the number of recorded outcomes.
func (t Tally) Observed() int {
	return len(t.Outcomes)
}

// Total returns the denominator for the given mode.
func (t Tally) Total(mode CountMode) int {
	if mode == CountDeclared {
		return max(t.Declared, t.Observed())
	}
	return t.Observed()
}

// Step folds one event into acc. Started transitions and unrecognized
// events leave it unchanged.
func Step(acc Tally, ev event.Event) Tally {
	switch ev.Kind {
	case event.KindTest:
		if !ev.Terminal() {
			return acc
		}
		outcome := report.TestOutcome{
			Name:          ev.Name,
			Status:        report.StatusOf(ev.Passed),
			ExecutionTime: ev.ExecTime,
		}
		if ev.Passed {
			outcome.Score = 1
			acc.Passed++
		}
		acc.Outcomes = append(acc.Outcomes, outcome)
	case event.KindSuite:
		if ev.Started() && ev.HasCount {
			acc.Declared += ev.TestCount
			acc.Suites++
		}
	}
	return acc
}

// Fold walks events once, in order.
func Fold(events iter.Seq[event.Event]) Tally {
	var acc Tally
	for ev := range events {
		acc = Step(acc, ev)
	}
	return acc
}

// Report assembles the final report from t.
func (t Tally) Report(opts Options) report.Report {
	total := t.Total(opts.Mode)

	passed := t.Passed == total
	if total == 0 {
		passed = opts.AllowEmpty
	}

	tests := t.Outcomes
	if tests == nil {
		tests = []report.TestOutcome{}
	}

	r := report.Report{
		Version: report.SchemaVersion,
		Status:  report.StatusOf(passed),
		Tests:   tests,
	}
	if opts.MaxScore != nil {
		ceiling := *opts.MaxScore
		score := Score(t.Passed, total, ceiling)
		r.MaxScore = &ceiling
		r.ComputedScore = &score
	}
	return r
}

// Score maps passed/total onto [0, ceiling], rounding half away from zero.
// A zero total scores 0.
func Score(passed, total, ceiling int) int {
	if total <= 0 || ceiling <= 0 || passed <= 0 {
		return 0
	}
	if passed > total {
		passed = total
	}
	p, n, c := int64(passed), int64(total), int64(ceiling)
	return int((2*p*c + n) / (2 * n))
}

// Summarize drains s and returns its report. Malformed records have
// already been skipped by s; only a failure reading the underlying input
// is returned.
func Summarize(s *event.Stream, opts Options) (report.Report, error) {
	tally := Fold(s.Events())
	if err := s.Err(); err != nil {
		return report.Report{}, err
	}
	return tally.Report(opts), nil
}
