package output

import (
	"io"

	"github.com/bgricker/testgrade/internal/report"
)

// JSONRenderer emits the report exactly as it is written to results.json.
type JSONRenderer struct {
	out       io.Writer
	canonical bool
}

// NewJSON creates a JSON renderer writing to out. When canonical is set the
// output uses RFC 8785 canonical form instead of indented JSON.
func NewJSON(out io.Writer, canonical bool) *JSONRenderer {
	return &JSONRenderer{out: out, canonical: canonical}
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(r report.Report) error {
	data, err := report.Encode(r, j.canonical)
	if err != nil {
		return err
	}
	_, err = j.out.Write(data)
	return err
}
