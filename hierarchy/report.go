package hierarchy

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type Status string

const (
	StatusCreated Status = "created"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// NodeResult is the outcome for one node. Path holds the names from the root.
type NodeResult struct {
	Path     []string
	Name     string
	TaskID   string
	ParentID string
	Status   Status
	Err      error
}

// Report lists results in depth-first order, roots in input order.
type Report struct {
	Results []NodeResult
}

func (r *Report) Created() []NodeResult { return r.filter(StatusCreated) }
func (r *Report) Failed() []NodeResult  { return r.filter(StatusFailed) }
func (r *Report) Skipped() []NodeResult { return r.filter(StatusSkipped) }

func (r *Report) filter(s Status) []NodeResult {
	var out []NodeResult
	for _, res := range r.Results {
		if res.Status == s {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the errors of failed nodes. It is nil when nothing failed.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", strings.Join(res.Path, " / "), res.Err))
	}
	return errors.Join(errs...)
}

// WriteSummary prints one line per node followed by the totals.
func (r *Report) WriteSummary(w io.Writer) error {
	for _, res := range r.Results {
		line := fmt.Sprintf("%-8s %s", res.Status, strings.Join(res.Path, " / "))
		if res.TaskID != "" {
			line += " (" + res.TaskID + ")"
		}
		if res.Status == StatusFailed && res.Err != nil {
			line += ": " + res.Err.Error()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "created %d, failed %d, skipped %d\n",
		len(r.Created()), len(r.Failed()), len(r.Skipped()))
	return err
}
