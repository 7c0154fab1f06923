package strictkeys

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Process exit codes.
const (
	ExitOK        = 0 // no strict violation
	ExitViolation = 1 // at least one strict violation
	ExitError     = 2 // usage, rules or document error
)

// Report aggregates the violations of a run.
type Report struct {
	Violations []Violation
	Strict     int
	Warn       int
}

// NewReport counts violations by severity.
func NewReport(violations []Violation) *Report {
	r := &Report{Violations: violations}
	for _, v := range violations {
		if v.Severity == Strict {
			r.Strict++
		} else {
			r.Warn++
		}
	}
	return r
}

// ExitCode is ExitOK iff no violation is strict. Warn-only reports pass.
func (r *Report) ExitCode() int {
	if r.Strict > 0 {
		return ExitViolation
	}
	return ExitOK
}

// Summary returns a one-line description of the counts.
func (r *Report) Summary() string {
	n := len(r.Violations)
	switch n {
	case 0:
		return "no violations"
	case 1:
		return fmt.Sprintf("1 violation (%d strict, %d warn)", r.Strict, r.Warn)
	default:
		return fmt.Sprintf("%d violations (%d strict, %d warn)", n, r.Strict, r.Warn)
	}
}

// WriteText writes one line per violation followed by the summary.
func (r *Report) WriteText(w io.Writer) error {
	for _, v := range r.Violations {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, r.Summary())
	return err
}

type jsonViolation struct {
	Source   string `json:"source,omitempty"`
	Document int    `json:"document"`
	Path     string `json:"path"`
	Key      string `json:"key"`
	Line     int    `json:"line,omitzero"`
	Column   int    `json:"column,omitzero"`
	Rule     string `json:"rule"`
	Severity Mode   `json:"severity"`
}

type jsonReport struct {
	Violations []jsonViolation `json:"violations"`
	Strict     int             `json:"strict"`
	Warn       int             `json:"warn"`
	ExitCode   int             `json:"exit_code"`
}

// WriteJSON writes the report as an indented JSON object.
func (r *Report) WriteJSON(w io.Writer) error {
	out := jsonReport{
		Violations: make([]jsonViolation, 0, len(r.Violations)),
		Strict:     r.Strict,
		Warn:       r.Warn,
		ExitCode:   r.ExitCode(),
	}
	for _, v := range r.Violations {
		out.Violations = append(out.Violations, jsonViolation{
			Source:   v.Source,
			Document: v.Document,
			Path:     v.Path.String(),
			Key:      v.Key,
			Line:     v.Pos.Line,
			Column:   v.Pos.Column,
			Rule:     v.Rule,
			Severity: v.Severity,
		})
	}
	if err := json.MarshalWrite(w, out, jsontext.WithIndent("  ")); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
