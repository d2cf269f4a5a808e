package event

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
)

var (
	// ErrMalformedDocument indicates a single-document payload that could not
	// be decoded. Nothing is recoverable from it.
	ErrMalformedDocument = errors.New("malformed event document")
	// ErrConsumed is reported when a Stream is iterated a second time.
	ErrConsumed = errors.New("event stream already consumed")
)

// Stream is a lazy sequence of classified events that can be walked once.
type Stream struct {
	produce   func(s *Stream, yield func(Event) bool) error
	consumed  bool
	malformed int
	err       error
}

// Events returns the event sequence. The first iteration drains the
// underlying input; later iterations yield nothing and set Err to
// ErrConsumed.
func (s *Stream) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if s.consumed {
			if s.err == nil {
				s.err = ErrConsumed
			}
			return
		}
		s.consumed = true
		s.err = s.produce(s, yield)
	}
}

// Malformed returns the number of records skipped because they did not
// decode as JSON objects.
func (s *Stream) Malformed() int {
	return s.malformed
}

// Err returns the error that ended iteration, if any.
func (s *Stream) Err() error {
	return s.err
}

// Lines returns a stream over newline-delimited JSON. Each non-empty line
// is decoded independently; lines that are not JSON objects are counted
// and skipped. Lines have no length limit.
func Lines(r io.Reader) *Stream {
	br := bufio.NewReader(r)
	return &Stream{
		produce: func(s *Stream, yield func(Event) bool) error {
			for {
				line, readErr := br.ReadBytes('\n')
				if line = bytes.TrimSpace(line); len(line) > 0 {
					raw, err := decodeObject(line)
					if err != nil {
						s.malformed++
					} else if !yield(Classify(raw)) {
						return nil
					}
				}
				if readErr == io.EOF {
					return nil
				}
				if readErr != nil {
					return fmt.Errorf("read event stream: %w", readErr)
				}
			}
		},
	}
}

// Document decodes data as one JSON document: a top-level array of event
// objects, or an object wrapping that array under "events". Array elements
// that are not objects are counted as malformed and skipped.
func Document(data []byte) (*Stream, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformedDocument)
	}

	items, ok := eventList(doc)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array of events", ErrMalformedDocument)
	}

	return &Stream{
		produce: func(s *Stream, yield func(Event) bool) error {
			for _, item := range items {
				obj, ok := item.(map[string]any)
				if !ok {
					s.malformed++
					continue
				}
				if !yield(Classify(Raw(obj))) {
					return nil
				}
			}
			return nil
		},
	}, nil
}

// Parse selects a strategy for data. ShapeAuto sniffs the payload first.
func Parse(data []byte, shape Shape) (*Stream, error) {
	if shape == ShapeAuto {
		shape = Sniff(data)
	}
	switch shape {
	case ShapeDocument:
		return Document(data)
	case ShapeLines:
		return Lines(bytes.NewReader(data)), nil
	default:
		return nil, fmt.Errorf("unsupported stream shape %q", shape)
	}
}

func eventList(doc any) ([]any, bool) {
	switch v := doc.(type) {
	case []any:
		return v, true
	case map[string]any:
		items, ok := v["events"].([]any)
		return items, ok
	default:
		return nil, false
	}
}

func decodeObject(line []byte) (Raw, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var raw Raw
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after record")
	}
	if raw == nil {
		return nil, errors.New("null record")
	}
	return raw, nil
}
