package filter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Removal records one lead removed by one stage, with the matched value that
// triggered the removal. Email falls back to the full name for display when
// the lead carries no address.
type Removal struct {
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// StageReport is the per-stage slice of the pipeline report. A stage whose
// config is not armed, or that degraded at runtime, appears with Skipped set
// and its input passed through untouched.
type StageReport struct {
	Name     string    `json:"name"`
	Skipped  bool      `json:"skipped,omitempty"`
	Note     string    `json:"note,omitempty"`
	In       int       `json:"in"`
	Kept     int       `json:"kept"`
	Removed  int       `json:"removed"`
	Removals []Removal `json:"removals,omitempty"`
}

// Report is the auditable outcome of one pipeline run: nothing is removed
// without a stage, a reason, and a matched value a reviewer can inspect
// before the result is committed downstream.
type Report struct {
	Input  int           `json:"input"`
	Output int           `json:"output"`
	Stages []StageReport `json:"stages"`
}

// Render writes the stage breakdown as an aligned text table.
func (r *Report) Render(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tIN\tKEPT\tREMOVED\tNOTE")
	_, _ = fmt.Fprintln(w, "-----\t--\t----\t-------\t----")
	for _, s := range r.Stages {
		note := s.Note
		if s.Skipped && note == "" {
			note = "skipped"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", s.Name, s.In, s.Kept, s.Removed, note)
	}
	_, _ = fmt.Fprintf(w, "total\t%d\t%d\t%d\t\n", r.Input, r.Output, r.Input-r.Output)
	_ = w.Flush()
}

// RenderRemovals writes the per-lead removal detail grouped by stage.
func (r *Report) RenderRemovals(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tLEAD\tVALUE\tREASON")
	_, _ = fmt.Fprintln(w, "-----\t----\t-----\t------")
	for _, s := range r.Stages {
		for _, rm := range s.Removals {
			lead := rm.Email
			if lead == "" {
				lead = rm.Name
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, lead, rm.Value, rm.Reason)
		}
	}
	_ = w.Flush()
}

// Summary returns a one-line description of the run for log lines.
func (r *Report) Summary() string {
	parts := make([]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		if s.Skipped || s.Removed == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:-%d", s.Name, s.Removed))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d in, %d kept", r.Input, r.Output)
	}
	return fmt.Sprintf("%d in, %d kept (%s)", r.Input, r.Output, strings.Join(parts, " "))
}
