package domain

import (
	"math"
	"testing"
)

func TestCompatibilityIdenticalVectors(t *testing.T) {
	v := &BehavioralVector{
		CommunicationDensity: 0.5,
		CompetitiveIntensity: 0.7,
		ScheduleReliability:  0.3,
		ToxicityTolerance:    0.2,
		MentorshipPropensity: 0.9,
	}

	result := Compatibility(v, v, 1.0, 1.0)
	if math.Abs(result.Score-1.0) > 1e-9 {
		t.Fatalf("identical vectors at full trust must score 1.0, got %f", result.Score)
	}
	if result.Distance != 0 || result.Behavioral != 1.0 {
		t.Fatalf("unexpected components %+v", result)
	}
}

func TestCompatibilityWeights(t *testing.T) {
	v1 := &BehavioralVector{CommunicationDensity: 1}
	v2 := &BehavioralVector{}

	result := Compatibility(v1, v2, 0.4, 0.6)

	behavioral := 1 - 1/math.Sqrt(5)
	want := behavioral*0.7 + 0.5*0.3
	if math.Abs(result.Score-want) > 1e-9 {
		t.Fatalf("expected %f got %f", want, result.Score)
	}
}

func TestCompatibilityMissingVectorIsNeutral(t *testing.T) {
	v := &BehavioralVector{CommunicationDensity: 0.5}

	for _, result := range []CompatibilityResult{
		Compatibility(nil, v, 0.5, 0.5),
		Compatibility(v, nil, 0.5, 0.5),
		Compatibility(nil, nil, 0.5, 0.5),
	} {
		if result.Score != NeutralCompatibility || !result.NeedsAssessment {
			t.Fatalf("missing vector must yield neutral needs-assessment result, got %+v", result)
		}
	}
}

func TestSessionCompatibilityIgnoresSchedule(t *testing.T) {
	v1 := &BehavioralVector{ScheduleReliability: 1.0}
	v2 := &BehavioralVector{ScheduleReliability: 0.0}

	result := SessionCompatibility(v1, v2, 1.0, 1.0)
	if math.Abs(result.Score-1.0) > 1e-9 {
		t.Fatalf("schedule reliability must not affect session ranking, got %f", result.Score)
	}

	full := Compatibility(v1, v2, 1.0, 1.0)
	if full.Score >= 1.0 {
		t.Fatalf("full-profile scoring must penalize the schedule gap, got %f", full.Score)
	}
}

func TestInterpretationBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.9, "Excellent Match - Very compatible playstyles"},
		{0.7, "Good Match - Compatible in most areas"},
		{0.6, "Moderate Match - Some differences but workable"},
		{0.4, "Poor Match - Significant playstyle differences"},
		{0.2, "Very Poor Match - Incompatible playstyles"},
	}
	for _, c := range cases {
		if got := Interpretation(c.score); got != c.want {
			t.Errorf("Interpretation(%f) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestRoleStaff(t *testing.T) {
	if RoleUser.Staff() {
		t.Fatalf("USER is not staff")
	}
	if !RoleModerator.Staff() || !RoleAdmin.Staff() {
		t.Fatalf("MODERATOR and ADMIN are staff")
	}
}
