package domain

import "testing"

func TestBandGrade_Boundaries(t *testing.T) {
	cases := []struct {
		sqs   float64
		want  Grade
	}{
		{80, GradePlatinum},
		{79.9, GradeGold},
		{60, GradeGold},
		{59.9, GradeSilver},
		{40, GradeSilver},
		{39.9, GradeBronze},
		{20, GradeBronze},
		{19.9, GradeDiscard},
		{0, GradeDiscard},
	}
	for _, c := range cases {
		if got := BandGrade(c.sqs, 80, 60, 40, 20); got != c.want {
			t.Errorf("BandGrade(%v) = %v, want %v", c.sqs, got, c.want)
		}
	}
}
