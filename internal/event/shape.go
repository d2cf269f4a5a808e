package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Shape names the layout of a captured runner payload.
type Shape string

const (
	ShapeAuto     Shape = "auto"
	ShapeLines    Shape = "lines"
	ShapeDocument Shape = "document"
)

// ParseShape converts a user-supplied name into a Shape.
func ParseShape(s string) (Shape, error) {
	switch shape := Shape(strings.ToLower(strings.TrimSpace(s))); shape {
	case "", ShapeAuto:
		return ShapeAuto, nil
	case ShapeLines, ShapeDocument:
		return shape, nil
	default:
		return "", fmt.Errorf("unknown stream shape %q (expected auto, lines, document)", s)
	}
}

// Sniff picks a strategy from the payload's leading bytes. A payload that
// opens with '[' is a document. One that opens with '{' is a document only
// if the whole input is a single object wrapping an "events" array;
// anything else is treated as newline-delimited records.
func Sniff(data []byte) Shape {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ShapeLines
	}
	switch trimmed[0] {
	case '[':
		return ShapeDocument
	case '{':
		if !json.Valid(trimmed) {
			return ShapeLines
		}
		var probe struct {
			Events json.RawMessage `json:"events"`
		}
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return ShapeLines
		}
		if len(probe.Events) > 0 && probe.Events[0] == '[' {
			return ShapeDocument
		}
	}
	return ShapeLines
}
