package contracts

import (
	"testing"
	"time"
)

func TestLookup_WithinWindow(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	l := NewLookup([]Award{
		{Ticker: "ACME", Date: base, Value: 1_000_000, Agency: "DoD"},
	}, 30*24*time.Hour)

	if _, ok := l.Lookup("ACME", base.AddDate(0, 0, 10)); !ok {
		t.Fatal("expected a match within the window")
	}
	if _, ok := l.Lookup("ACME", base.AddDate(0, 0, -10)); !ok {
		t.Fatal("expected a match for a date preceding the award, within window")
	}
	if _, ok := l.Lookup("ACME", base.AddDate(0, 0, 40)); ok {
		t.Fatal("expected no match outside the window")
	}
	if _, ok := l.Lookup("OTHER", base); ok {
		t.Fatal("expected no match for an unknown ticker")
	}
}

func TestLookup_NearestAward(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLookup([]Award{
		{Ticker: "ACME", Date: base, Value: 1, Agency: "A"},
		{Ticker: "ACME", Date: base.AddDate(0, 0, 5), Value: 2, Agency: "B"},
	}, 30*24*time.Hour)

	got, ok := l.Lookup("ACME", base.AddDate(0, 0, 4))
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Agency != "B" {
		t.Fatalf("expected the nearer award (B), got %s", got.Agency)
	}
}

func TestNewLookup_DefaultWindow(t *testing.T) {
	l := NewLookup(nil, 0)
	if l.window != 30*24*time.Hour {
		t.Fatalf("expected default 30-day window, got %v", l.window)
	}
}
