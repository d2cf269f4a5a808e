package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gowebpki/jcs"
)

// Encode renders r as indented JSON, or as RFC 8785 canonical JSON when
// canonical is set. Both forms end with a newline.
func Encode(r Report, canonical bool) ([]byte, error) {
	if r.Tests == nil {
		r.Tests = []TestOutcome{}
	}
	if !canonical {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return append(data, '\n'), nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	data, err = jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalize report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteOptions control how WriteFile encodes the report.
type WriteOptions struct {
	Canonical bool
	// SkipValidation disables the schema check before writing.
	SkipValidation bool
}

// WriteFile checks r, encodes it and writes it to dir/results.json,
// replacing any existing file atomically. It returns the written path.
func WriteFile(dir string, r Report, opts WriteOptions) (string, error) {
	if err := r.Check(); err != nil {
		return "", err
	}
	data, err := Encode(r, opts.Canonical)
	if err != nil {
		return "", err
	}
	if !opts.SkipValidation {
		if err := Validate(data); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, FileName)
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp report in %q: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("chmod report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename report to %q: %w", path, err)
	}
	return path, nil
}

// ReadFile decodes a previously written results.json.
func ReadFile(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read report %q: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("parse report %q: %w", path, err)
	}
	return r, nil
}
