// Package report renders the run-level success/fail banner the CLI prints
// after each subcommand, modeled on the teacher's ops-status snapshot:
// a compact, human-scannable summary of what ran, what it touched, and
// whether anything needs a human's attention.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sawpanic/capitolflow/internal/pipeline"
)

// RunReport is the health banner for one ETL run.
type RunReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Summaries []pipeline.RunSummary
}

// OK reports whether every chamber source completed without a hard failure.
func (r RunReport) OK() bool {
	for _, s := range r.Summaries {
		if s.Failed {
			return false
		}
	}
	return true
}

// Render writes the banner to w.
func (r RunReport) Render(w io.Writer) {
	status := "OK"
	if !r.OK() {
		status = "DEGRADED"
	}
	fmt.Fprintf(w, "\n=== capitolflow run report: %s ===\n", status)
	fmt.Fprintf(w, "started %s, took %s\n\n", r.StartedAt.Format(time.RFC3339), r.Duration.Round(time.Millisecond))

	for _, s := range r.Summaries {
		marker := "ok"
		if s.Failed {
			marker = "FAILED"
		}
		fmt.Fprintf(w, "[%s] %-8s fetcher=%s attempts=%s candidates=%d inserted=%d duplicates=%d rejected=%d manual_review=%d name_unresolved=%d\n",
			marker, s.Chamber, orNone(s.FetcherUsed), strings.Join(s.FetchAttempts, "->"),
			s.CandidateCount, s.LoadResult.Inserted, s.LoadResult.Duplicates, s.LoadResult.Rejected,
			s.LoadResult.ManualReview, s.LoadResult.NameUnresolved)
		if s.Failed && s.Err != nil {
			fmt.Fprintf(w, "       error: %v\n", s.Err)
		}
	}
	fmt.Fprintln(w)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
