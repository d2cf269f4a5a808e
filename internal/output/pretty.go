package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/bgricker/testgrade/internal/report"
)

// Renderer writes a finished report somewhere.
type Renderer interface {
	Render(r report.Report) error
}

// PrettyRenderer renders execution results in a human-friendly format.
type PrettyRenderer struct {
	out   io.Writer
	color bool

	pass  lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
}

// NewPretty creates a PrettyRenderer writing to the provided writer. Colour
// is enabled only when color is set; see IsTerminal.
func NewPretty(out io.Writer, color bool) *PrettyRenderer {
	return &PrettyRenderer{
		out:   out,
		color: color,
		pass:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Render shows one row per test followed by a summary line.
func (p *PrettyRenderer) Render(r report.Report) error {
	if len(r.Tests) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(p.out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"", "Test", "Time", "Score"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		})
		for _, tc := range r.Tests {
			t.AppendRow(table.Row{p.glyph(tc.Status), tc.Name, tc.ExecutionTime, tc.Score})
		}
		t.Render()
	}

	passed, failed := r.Counts()
	line := fmt.Sprintf("SUMMARY: %d passed, %d failed", passed, failed)
	if r.MaxScore != nil && r.ComputedScore != nil {
		line += fmt.Sprintf(" (score %d/%d)", *r.ComputedScore, *r.MaxScore)
	}
	if len(r.Tests) == 0 {
		line += p.paint(p.muted, " no tests reported")
	}
	_, err := fmt.Fprintf(p.out, "%s %s\n", line, p.verdict(r.Status))
	return err
}

func (p *PrettyRenderer) glyph(s report.Status) string {
	return p.paint(p.style(s), statusGlyph(s))
}

func (p *PrettyRenderer) verdict(s report.Status) string {
	label := "FAIL"
	if s == report.StatusPass {
		label = "PASS"
	}
	return p.paint(p.style(s), label)
}

func (p *PrettyRenderer) style(s report.Status) lipgloss.Style {
	if s == report.StatusPass {
		return p.pass
	}
	return p.fail
}

func (p *PrettyRenderer) paint(st lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return st.Render(s)
}

func statusGlyph(status report.Status) string {
	switch status {
	case report.StatusPass:
		return "✓"
	case report.StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
