package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/santapalabra/scripture/core/errors"
)

// maxErrorSamples bounds the flush error messages a report keeps.
const maxErrorSamples = 5

// Report summarizes the ingestion of one source.
type Report struct {
	RunID    string        `json:"run_id"`
	Source   string        `json:"source"`
	Digest   string        `json:"blake3,omitempty"`
	Lines    int           `json:"lines"`
	Blank    int           `json:"blank"`
	Skipped  int           `json:"skipped"`
	Unmapped int           `json:"unmapped"`
	Verses   int           `json:"verses"`
	Words    int           `json:"words"`
	Duration time.Duration `json:"duration_ns"`

	FlushErrors  int      `json:"flush_errors"`
	ErrorSamples []string `json:"error_samples,omitempty"`

	// Failed marks a source that could not be opened or read to its end.
	// Other sources of the run are unaffected.
	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`

	Fatal        bool   `json:"fatal"`
	FatalMessage string `json:"fatal_message,omitempty"`
}

// Halts reports whether err stops a whole run: a missing schema or a
// finished context. Any other source error fails only that source.
func Halts(err error) bool {
	return errors.Is(err, errors.ErrSchemaMissing) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (r *Report) addFlushError(err error) {
	r.FlushErrors++
	if len(r.ErrorSamples) < maxErrorSamples {
		r.ErrorSamples = append(r.ErrorSamples, err.Error())
	}
}

// stop records the error that ended the source.
func (r *Report) stop(err error) {
	if Halts(err) {
		r.Fatal = true
		r.FatalMessage = err.Error()
		return
	}
	r.Failed = true
	r.Error = err.Error()
}

func (r *Report) result() string {
	switch {
	case r.Fatal:
		return "fatal"
	case r.Failed:
		return "failed"
	}
	return "ok"
}

// String renders a one-line summary.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d verses, %d words, %d lines (%d skipped, %d unmapped, %d blank)",
		r.Source, r.Verses, r.Words, r.Lines, r.Skipped, r.Unmapped, r.Blank)
	if r.FlushErrors > 0 {
		fmt.Fprintf(&b, ", %d flush errors", r.FlushErrors)
	}
	if r.Failed {
		fmt.Fprintf(&b, ", FAILED: %s", r.Error)
	}
	if r.Fatal {
		fmt.Fprintf(&b, ", FATAL: %s", r.FatalMessage)
	}
	return b.String()
}

// RunReport aggregates the reports of one multi-source run.
type RunReport struct {
	RunID    string        `json:"run_id"`
	Sources  []*Report     `json:"sources"`
	Duration time.Duration `json:"duration_ns"`
}

// Totals sums the per-source counters.
func (rr *RunReport) Totals() Report {
	t := Report{RunID: rr.RunID, Source: "total", Duration: rr.Duration}
	for _, r := range rr.Sources {
		if r == nil {
			continue
		}
		t.Lines += r.Lines
		t.Blank += r.Blank
		t.Skipped += r.Skipped
		t.Unmapped += r.Unmapped
		t.Verses += r.Verses
		t.Words += r.Words
		t.FlushErrors += r.FlushErrors
		if r.Failed && !t.Failed {
			t.Failed = true
			t.Error = r.Source + ": " + r.Error
		}
		if r.Fatal && !t.Fatal {
			t.Fatal = true
			t.FatalMessage = r.Source + ": " + r.FatalMessage
		}
	}
	return t
}

// FailedSources returns the names of the sources that could not be read.
func (rr *RunReport) FailedSources() []string {
	var out []string
	for _, r := range rr.Sources {
		if r != nil && r.Failed {
			out = append(out, r.Source)
		}
	}
	return out
}

// Fatal reports whether any source hit a fatal error.
func (rr *RunReport) Fatal() bool {
	for _, r := range rr.Sources {
		if r != nil && r.Fatal {
			return true
		}
	}
	return false
}
