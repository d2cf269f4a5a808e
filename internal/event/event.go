// Package event decodes the JSON event stream written by the libtest
// formatter (`cargo test -- -Z unstable-options --format json`) and
// classifies each record into a small set of event kinds.
package event

import (
	"encoding/json"
	"strconv"
)

// Kind identifies the family of a decoded record.
type Kind int

const (
	// KindUnknown covers records with a missing or unrecognized discriminant.
	KindUnknown Kind = iota
	// KindTest is a single test's lifecycle event.
	KindTest
	// KindSuite is a suite-level event, e.g. the declared test count.
	KindSuite
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindSuite:
		return "suite"
	default:
		return "unknown"
	}
}

// Sub-states reported in the "event" field.
const (
	StateStarted = "started"
	StateOK      = "ok"
	StatePass    = "pass"
	StateFailed  = "failed"
	StateIgnored = "ignored"
)

// DefaultExecTime is reported for terminal test events without a duration.
const DefaultExecTime = "0ms"

// Raw is an untyped decoded record. Every lookup is optional.
type Raw map[string]any

// String returns the first of keys holding a JSON string.
func (r Raw) String(keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := r[key].(string); ok {
			return s, true
		}
	}
	return "", false
}

// Number returns the first of keys holding a JSON number. Records must be
// decoded with UseNumber for numbers to be found.
func (r Raw) Number(keys ...string) (json.Number, bool) {
	for _, key := range keys {
		if n, ok := r[key].(json.Number); ok {
			return n, true
		}
	}
	return "", false
}

// Event is a classified record. Only the fields relevant to Kind are set.
type Event struct {
	Kind  Kind
	State string

	// Test events.
	Name     string
	ExecTime string
	Passed   bool
	Stdout   string

	// Suite events. HasCount is false when the record carried no usable
	// test count.
	TestCount int
	HasCount  bool

	Raw Raw
}

// Started reports whether the event is an informational "started" transition.
func (e Event) Started() bool {
	return e.State == StateStarted
}

// Terminal reports whether e is a test event carrying a final outcome.
func (e Event) Terminal() bool {
	return e.Kind == KindTest && !e.Started()
}

// Classify maps a raw record onto an Event. It never fails: missing fields
// take their defaults and unrecognized discriminants yield KindUnknown.
func Classify(raw Raw) Event {
	ev := Event{Raw: raw}
	ev.State, _ = raw.String("event", "status")

	kind, _ := raw.String("type", "kind")
	switch kind {
	case "test":
		ev.Kind = KindTest
		ev.Name, _ = raw.String("name")
		ev.ExecTime = execTime(raw)
		ev.Passed = ev.State == StateOK || ev.State == StatePass
		ev.Stdout, _ = raw.String("stdout")
	case "suite":
		ev.Kind = KindSuite
		ev.TestCount, ev.HasCount = testCount(raw)
	default:
		ev.Kind = KindUnknown
	}
	return ev
}

// execTime passes the runner's duration through untouched. Older libtest
// builds report a string, newer ones a number of seconds.
func execTime(raw Raw) string {
	if s, ok := raw.String("exec_time"); ok {
		return s
	}
	if n, ok := raw.Number("exec_time"); ok {
		return n.String() + "s"
	}
	return DefaultExecTime
}

func testCount(raw Raw) (int, bool) {
	n, ok := raw.Number("test_count", "count")
	if !ok {
		return 0, false
	}
	count, err := strconv.Atoi(n.String())
	if err != nil || count < 0 {
		return 0, false
	}
	return count, true
}
