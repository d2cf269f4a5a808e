package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/testgrade/internal/event"
	"github.com/bgricker/testgrade/internal/report"
)

func TestSummarizeCommandJSON(t *testing.T) {
	root := projectRoot(t)
	chdir(t, root)

	stdout, stderr, err := execute(t, nil,
		"summarize", "testdata/events/mixed.jsonl", "--max-score", "10", "--format", "json")
	require.NoError(t, err)

	want := readGolden(t, filepath.Join(root, "testdata", "golden", "summarize_mixed.json"))
	if diff := diffStrings(want, stdout); diff != "" {
		t.Fatalf("unexpected output:\n%s", diff)
	}
	assert.Contains(t, stderr, "skipped_lines=1")
	assert.Contains(t, stderr, "run_id=")
}

func TestSummarizeCommandPretty(t *testing.T) {
	chdir(t, projectRoot(t))

	stdout, _, err := execute(t, nil, "summarize", "testdata/events/mixed.jsonl", "--max-score", "10")
	require.NoError(t, err)

	assert.Contains(t, stdout, "tests::divides")
	assert.Contains(t, stdout, "SUMMARY: 2 passed, 2 failed (score 5/10) FAIL")
}

func TestSummarizeCommandDocumentStdin(t *testing.T) {
	root := projectRoot(t)
	data, err := os.ReadFile(filepath.Join(root, "testdata", "events", "document.json"))
	require.NoError(t, err)

	stdout, _, err := execute(t, data, "summarize", "-", "--format", "json", "--config-dir", t.TempDir())
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, report.StatusPass, rep.Status)
	assert.Len(t, rep.Tests, 2)
	assert.Equal(t, "0ms", rep.Tests[1].ExecutionTime)
	assert.Nil(t, rep.MaxScore)
	assert.NotContains(t, stdout, "max_score")
}

func TestSummarizeCommandDeclaredMode(t *testing.T) {
	// The suite declares 4 tests but one terminal event never arrives.
	input := strings.Join([]string{
		`{"type":"suite","event":"started","test_count":4}`,
		`{"type":"test","event":"ok","name":"a"}`,
		`{"type":"test","event":"ok","name":"b"}`,
		`{"type":"test","event":"ok","name":"c"}`,
	}, "\n")

	stdout, _, err := execute(t, []byte(input),
		"summarize", "--mode", "declared", "--max-score", "8", "--format", "json", "--config-dir", t.TempDir())
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, report.StatusFail, rep.Status)
	require.NotNil(t, rep.ComputedScore)
	assert.Equal(t, 6, *rep.ComputedScore)
}

func TestSummarizeCommandWritesOutput(t *testing.T) {
	root := projectRoot(t)
	chdir(t, root)
	out := t.TempDir()

	_, _, err := execute(t, nil,
		"summarize", "testdata/events/mixed.jsonl", "--max-score", "10", "--output", out, "--canonical", "--format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, report.FileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"computed_score":5,"max_score":10,"status":"fail"`), string(data))
}

func TestSummarizeCommandStrict(t *testing.T) {
	chdir(t, projectRoot(t))

	_, _, err := execute(t, nil, "summarize", "testdata/events/mixed.jsonl", "--strict")
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.code)
}

func TestSummarizeCommandEmptyInput(t *testing.T) {
	_, _, err := execute(t, []byte("not json\n"), "summarize", "--strict", "--config-dir", t.TempDir())
	require.Error(t, err, "zero tests fail by default")

	_, _, err = execute(t, []byte("not json\n"), "summarize", "--strict", "--allow-empty", "--config-dir", t.TempDir())
	require.NoError(t, err)
}

func TestSummarizeCommandMalformedDocument(t *testing.T) {
	_, _, err := execute(t, []byte("[{\"type\":"), "summarize", "--shape", "document", "--config-dir", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, event.ErrMalformedDocument), "got %v", err)
}

func TestSummarizeCommandRejectsBadOptions(t *testing.T) {
	cases := [][]string{
		{"summarize", "--shape", "xml"},
		{"summarize", "--mode", "declared", "--exclude", "slow"},
		{"summarize", "--max-score", "-1"},
		{"summarize", "--include", "/[/"},
		{"summarize", "--output", "does-not-exist"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args[1:], " "), func(t *testing.T) {
			args = append(args, "--config-dir", t.TempDir())
			_, _, err := execute(t, []byte(""), args...)
			assert.Error(t, err)
		})
	}
}
