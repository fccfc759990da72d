package domain

import (
	"testing"
	"time"
)

func TestConvergenceScoreBreakdown_Total(t *testing.T) {
	b := ConvergenceScoreBreakdown{
		Base:                  10,
		TimeDensityBonus:      5,
		CrossChamberBonus:     3,
		AmountWeightBonus:     2,
		HighFrequencyDiscount: -4,
		NotableParticipantBonus: 1,
	}
	if got, want := b.Total(), 17.0; got != want {
		t.Fatalf("Total() = %v, want %v", got, want)
	}
}

func TestConvergenceEvent_DistinctPoliticianCount(t *testing.T) {
	e := ConvergenceEvent{
		Participants: []ConvergenceParticipant{
			{PoliticianName: "Jane Doe", Chamber: ChamberSenate},
			{PoliticianName: "Jane Doe", Chamber: ChamberSenate},
			{PoliticianName: "John Roe", Chamber: ChamberHouse},
		},
	}
	if got := e.DistinctPoliticianCount(); got != 2 {
		t.Fatalf("DistinctPoliticianCount() = %d, want 2", got)
	}
}

func TestConvergenceEvent_SpansBothChambers(t *testing.T) {
	e := ConvergenceEvent{
		Participants: []ConvergenceParticipant{
			{PoliticianName: "Jane Doe", Chamber: ChamberSenate, TransactionDate: time.Now()},
		},
	}
	if e.SpansBothChambers() {
		t.Fatal("expected false with only one chamber represented")
	}
	e.Participants = append(e.Participants, ConvergenceParticipant{PoliticianName: "John Roe", Chamber: ChamberHouse})
	if !e.SpansBothChambers() {
		t.Fatal("expected true once both chambers are represented")
	}
}
