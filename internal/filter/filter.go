// Package filter narrows the set of tests that take part in scoring.
package filter

import (
	"fmt"
	"iter"
	"regexp"
	"strings"

	"github.com/bgricker/testgrade/internal/event"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern
// wrapped in slashes is a regular expression; anything else is a
// case-insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

func (p Pattern) String() string {
	return p.raw
}

// Set holds include and exclude patterns for test names.
type Set struct {
	include []Pattern
	exclude []Pattern
}

// New compiles include and exclude patterns into a Set.
func New(include, exclude []string) (Set, error) {
	inc, err := Compile(include)
	if err != nil {
		return Set{}, fmt.Errorf("include: %w", err)
	}
	exc, err := Compile(exclude)
	if err != nil {
		return Set{}, fmt.Errorf("exclude: %w", err)
	}
	return Set{include: inc, exclude: exc}, nil
}

// Empty reports whether the set lets every test through.
func (s Set) Empty() bool {
	return len(s.include) == 0 && len(s.exclude) == 0
}

// Keep reports whether a test named name takes part in scoring.
func (s Set) Keep(name string) bool {
	if len(s.include) > 0 && !matchesAny(name, s.include) {
		return false
	}
	if len(s.exclude) > 0 && matchesAny(name, s.exclude) {
		return false
	}
	return true
}

// Events drops test events whose names the set rejects. Suite and
// unrecognized events pass through untouched.
func (s Set) Events(events iter.Seq[event.Event]) iter.Seq[event.Event] {
	if s.Empty() {
		return events
	}
	return func(yield func(event.Event) bool) {
		for ev := range events {
			if ev.Kind == event.KindTest && !s.Keep(ev.Name) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

func matchesAny(name string, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}
