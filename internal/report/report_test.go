package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/load"
	"github.com/sawpanic/capitolflow/internal/pipeline"
)

func TestRunReport_OK(t *testing.T) {
	rr := RunReport{Summaries: []pipeline.RunSummary{
		{Chamber: domain.ChamberSenate, LoadResult: load.Result{Inserted: 3}},
		{Chamber: domain.ChamberHouse, LoadResult: load.Result{Inserted: 1}},
	}}
	if !rr.OK() {
		t.Fatal("expected OK with no failed summaries")
	}

	var buf bytes.Buffer
	rr.Render(&buf)
	out := buf.String()
	if !strings.Contains(out, "run report: OK") {
		t.Fatalf("expected OK banner, got: %s", out)
	}
}

func TestRunReport_Degraded(t *testing.T) {
	rr := RunReport{
		StartedAt: time.Now(),
		Duration:  time.Second,
		Summaries: []pipeline.RunSummary{
			{Chamber: domain.ChamberSenate, Failed: true, Err: errors.New("boom")},
		},
	}
	if rr.OK() {
		t.Fatal("expected DEGRADED with a failed summary")
	}

	var buf bytes.Buffer
	rr.Render(&buf)
	out := buf.String()
	if !strings.Contains(out, "run report: DEGRADED") {
		t.Fatalf("expected DEGRADED banner, got: %s", out)
	}
	if !strings.Contains(out, "error: boom") {
		t.Fatalf("expected error line in banner, got: %s", out)
	}
}
