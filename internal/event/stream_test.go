package event

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s *Stream) []Event {
	var out []Event
	for ev := range s.Events() {
		out = append(out, ev)
	}
	return out
}

func names(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Name)
	}
	return out
}

func TestLinesSkipsMalformed(t *testing.T) {
	input := strings.Join([]string{
		`   Compiling adder v0.1.0 (/tmp/adder)`,
		`{ "type": "suite", "event": "started", "test_count": 2 }`,
		`{ "type": "test", "event": "started", "name": "tests::a" }`,
		`running 2 tests`,
		`{ "type": "test", "name": "tests::a", "event": "ok", "exec_time": 0.000123 }`,
		`{"type": "test", "name": "broken"`,
		`"just a string"`,
		`null`,
		`{"type":"test","name":"tests::b","event":"failed"} trailing`,
		``,
		`{ "type": "test", "name": "tests::b", "event": "failed" }`,
	}, "\n")

	s := Lines(strings.NewReader(input))
	events := collect(s)
	require.NoError(t, s.Err())

	assert.Equal(t, 6, s.Malformed())
	require.Len(t, events, 4)
	assert.Equal(t, KindSuite, events[0].Kind)
	assert.Equal(t, 2, events[0].TestCount)
	assert.Equal(t, []string{"", "tests::a", "tests::a", "tests::b"}, names(events))
	assert.Equal(t, "0.000123s", events[2].ExecTime)
	assert.True(t, events[2].Passed)
	assert.False(t, events[3].Passed)
}

func TestLinesHandlesCRLFAndMissingFinalNewline(t *testing.T) {
	input := "{\"type\":\"test\",\"name\":\"a\",\"event\":\"ok\"}\r\n{\"type\":\"test\",\"name\":\"b\",\"event\":\"ok\"}"
	s := Lines(strings.NewReader(input))
	events := collect(s)
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"a", "b"}, names(events))
	assert.Zero(t, s.Malformed())
}

func TestLinesLongLine(t *testing.T) {
	long := strings.Repeat("x", 2*1024*1024)
	input := `{"type":"test","name":"big","event":"failed","stdout":"` + long + `"}` + "\n"
	s := Lines(strings.NewReader(input))
	events := collect(s)
	require.NoError(t, s.Err())
	require.Len(t, events, 1)
	assert.Len(t, events[0].Stdout, len(long))
}

func TestLinesReadError(t *testing.T) {
	boom := errors.New("boom")
	s := Lines(iotest.ErrReader(boom))
	assert.Empty(t, collect(s))
	require.ErrorIs(t, s.Err(), boom)
}

func TestStreamConsumedOnce(t *testing.T) {
	s := Lines(strings.NewReader(`{"type":"test","name":"a","event":"ok"}` + "\n"))
	assert.Len(t, collect(s), 1)
	require.NoError(t, s.Err())

	assert.Empty(t, collect(s))
	assert.ErrorIs(t, s.Err(), ErrConsumed)
}

func TestStreamEarlyStop(t *testing.T) {
	s := Lines(strings.NewReader("{\"type\":\"test\",\"name\":\"a\"}\n{\"type\":\"test\",\"name\":\"b\"}\n"))
	var seen []string
	for ev := range s.Events() {
		seen = append(seen, ev.Name)
		break
	}
	assert.Equal(t, []string{"a"}, seen)
	assert.NoError(t, s.Err())
}

func TestDocument(t *testing.T) {
	data := []byte(`[
		{"type": "suite", "event": "started", "test_count": 3},
		{"type": "test", "event": "started", "name": "a"},
		{"type": "test", "event": "ok", "name": "a", "exec_time": "1ms"},
		42,
		{"type": "test", "event": "failed", "name": "b"}
	]`)

	s, err := Document(data)
	require.NoError(t, err)
	events := collect(s)
	require.NoError(t, s.Err())
	assert.Equal(t, 1, s.Malformed())
	assert.Equal(t, []string{"", "a", "a", "b"}, names(events))
	assert.Equal(t, "1ms", events[2].ExecTime)
}

func TestDocumentWrapped(t *testing.T) {
	s, err := Document([]byte(`{"events": [{"type": "test", "event": "ok", "name": "a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(collect(s)))
}

func TestDocumentMalformed(t *testing.T) {
	cases := map[string]string{
		"truncated":     `[{"type": "test"`,
		"not json":      `running 2 tests`,
		"scalar":        `42`,
		"object":        `{"type": "test", "event": "ok"}`,
		"trailing data": `[] []`,
		"empty":         ``,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Document([]byte(input))
			require.ErrorIs(t, err, ErrMalformedDocument)
			assert.Nil(t, s)
		})
	}
}

func TestParse(t *testing.T) {
	lines := []byte("{\"type\":\"test\",\"name\":\"a\",\"event\":\"ok\"}\n{\"type\":\"test\",\"name\":\"b\",\"event\":\"ok\"}\n")
	doc := []byte(`[{"type":"test","name":"a","event":"ok"}]`)

	s, err := Parse(lines, ShapeAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(collect(s)))

	s, err = Parse(doc, ShapeAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(collect(s)))

	s, err = Parse(doc, ShapeLines)
	require.NoError(t, err)
	assert.Empty(t, collect(s))
	assert.Equal(t, 1, s.Malformed())

	_, err = Parse(lines, ShapeDocument)
	require.ErrorIs(t, err, ErrMalformedDocument)

	_, err = Parse(lines, Shape("xml"))
	require.Error(t, err)
}
