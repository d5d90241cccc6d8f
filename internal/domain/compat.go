package domain

import "math"

const (
	compatBehaviorWeight = 0.7
	compatTrustWeight    = 0.3

	// NeutralCompatibility is reported when either side has no behavioral
	// vector yet; computing a real score from missing data would be
	// misleading.
	NeutralCompatibility = 0.5
)

// CompatibilityResult breaks a match score into its components.
type CompatibilityResult struct {
	Score           float64 `json:"score"`
	Behavioral      float64 `json:"behavioral"`
	Trust           float64 `json:"trust"`
	Distance        float64 `json:"distance"`
	NeedsAssessment bool    `json:"needsAssessment"`
}

// Compatibility scores two full profiles over all 5 behavioral dimensions.
func Compatibility(v1, v2 *BehavioralVector, trust1, trust2 float64) CompatibilityResult {
	if v1 == nil || v2 == nil {
		return CompatibilityResult{Score: NeutralCompatibility, NeedsAssessment: true}
	}
	return score([]float64{
		v1.CommunicationDensity - v2.CommunicationDensity,
		v1.CompetitiveIntensity - v2.CompetitiveIntensity,
		v1.ScheduleReliability - v2.ScheduleReliability,
		v1.ToxicityTolerance - v2.ToxicityTolerance,
		v1.MentorshipPropensity - v2.MentorshipPropensity,
	}, trust1, trust2)
}

// SessionCompatibility scores candidates for session ranking over the 4
// dimensions that matter in-lobby; schedule reliability is excluded.
func SessionCompatibility(v1, v2 *BehavioralVector, trust1, trust2 float64) CompatibilityResult {
	if v1 == nil || v2 == nil {
		return CompatibilityResult{Score: NeutralCompatibility, NeedsAssessment: true}
	}
	return score([]float64{
		v1.CommunicationDensity - v2.CommunicationDensity,
		v1.CompetitiveIntensity - v2.CompetitiveIntensity,
		v1.ToxicityTolerance - v2.ToxicityTolerance,
		v1.MentorshipPropensity - v2.MentorshipPropensity,
	}, trust1, trust2)
}

func score(diffs []float64, trust1, trust2 float64) CompatibilityResult {
	var sum float64
	for _, d := range diffs {
		sum += d * d
	}
	distance := math.Sqrt(sum)
	maxDistance := math.Sqrt(float64(len(diffs)))

	behavioral := 1 - distance/maxDistance
	trust := (trust1 + trust2) / 2

	return CompatibilityResult{
		Score:      behavioral*compatBehaviorWeight + trust*compatTrustWeight,
		Behavioral: behavioral,
		Trust:      trust,
		Distance:   distance,
	}
}

// Interpretation maps a score to a display band. Bands are for rendering,
// never for gating.
func Interpretation(score float64) string {
	switch {
	case score > 0.8:
		return "Excellent Match - Very compatible playstyles"
	case score > 0.65:
		return "Good Match - Compatible in most areas"
	case score > 0.5:
		return "Moderate Match - Some differences but workable"
	case score > 0.35:
		return "Poor Match - Significant playstyle differences"
	default:
		return "Very Poor Match - Incompatible playstyles"
	}
}
