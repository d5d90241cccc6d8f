package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/squadup/squadup/internal/domain"
)

type trustEnv struct {
	trust    *TrustUsecase
	identity *memIdentityRepo
	edges    *memTrustRepo
}

func newTrustEnv(identities ...domain.Identity) *trustEnv {
	identityRepo := newMemIdentityRepo(identities...)
	trustRepo := newMemTrustRepo()
	notifications := NewNotificationUsecase(&memNotificationRepo{}, &capturePublisher{})
	return &trustEnv{
		trust:    NewTrustUsecase(trustRepo, identityRepo, notifications),
		identity: identityRepo,
		edges:    trustRepo,
	}
}

func TestEndorseCreatesEdgeAndNudges(t *testing.T) {
	env := newTrustEnv(
		domain.Identity{ID: "alice", Username: "alice", TrustScore: 0.5},
		domain.Identity{ID: "bob", Username: "bob", TrustScore: 0.5},
	)

	result, err := env.trust.Endorse(context.Background(), "alice", "bob", "team_player")
	if err != nil {
		t.Fatalf("endorse failed: %v", err)
	}
	if !result.Created || result.Weight != domain.EdgeInitialWeight {
		t.Fatalf("expected new edge at %.2f got %+v", domain.EdgeInitialWeight, result)
	}
	if result.Counts.TeamPlayer != 1 || result.Total != 1 {
		t.Fatalf("expected counter incremented got %+v", result)
	}

	bob, _ := env.identity.Get(context.Background(), "bob")
	if math.Abs(bob.TrustScore-0.51) > 1e-9 {
		t.Fatalf("expected trust nudged to 0.51 got %f", bob.TrustScore)
	}
}

func TestEndorseAgainRatchetsWeight(t *testing.T) {
	env := newTrustEnv(
		domain.Identity{ID: "alice", TrustScore: 0.5},
		domain.Identity{ID: "bob", TrustScore: 0.5},
	)

	if _, err := env.trust.Endorse(context.Background(), "alice", "bob", "team_player"); err != nil {
		t.Fatalf("first endorse failed: %v", err)
	}
	second, err := env.trust.Endorse(context.Background(), "alice", "bob", "skilled")
	if err != nil {
		t.Fatalf("second endorse failed: %v", err)
	}
	if second.Created || second.Weight != domain.EdgeReinforcedWeight {
		t.Fatalf("expected reinforced edge at %.2f got %+v", domain.EdgeReinforcedWeight, second)
	}
	if second.Counts.TeamPlayer != 1 || second.Counts.Skilled != 1 || second.Total != 2 {
		t.Fatalf("expected per-category counters got %+v", second.Counts)
	}
}

func TestEndorseTrustCapsAtCeiling(t *testing.T) {
	env := newTrustEnv(
		domain.Identity{ID: "alice", TrustScore: 0.5},
		domain.Identity{ID: "bob", TrustScore: 0.999},
	)

	if _, err := env.trust.Endorse(context.Background(), "alice", "bob", "positive"); err != nil {
		t.Fatalf("endorse failed: %v", err)
	}
	bob, _ := env.identity.Get(context.Background(), "bob")
	if bob.TrustScore > domain.TrustCeiling {
		t.Fatalf("trust exceeded ceiling: %f", bob.TrustScore)
	}
}

func TestEndorseValidation(t *testing.T) {
	env := newTrustEnv(domain.Identity{ID: "alice"}, domain.Identity{ID: "bob"})

	if _, err := env.trust.Endorse(context.Background(), "alice", "alice", "positive"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected self-endorse rejection got %v", err)
	}
	if _, err := env.trust.Endorse(context.Background(), "alice", "bob", "goat"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid category rejection got %v", err)
	}
	if _, err := env.trust.Endorse(context.Background(), "alice", "ghost", "positive"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound got %v", err)
	}
}

func TestCompatibilityNeutralWithoutVector(t *testing.T) {
	env := newTrustEnv(
		domain.Identity{ID: "alice", TrustScore: 0.5},
		domain.Identity{ID: "bob", TrustScore: 0.5, Vector: &domain.BehavioralVector{}},
	)

	report, err := env.trust.Compatibility(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("compatibility failed: %v", err)
	}
	if report.Score != domain.NeutralCompatibility || !report.NeedsAssessment {
		t.Fatalf("expected neutral needs-assessment report got %+v", report)
	}
}

func TestCompatibilityIsSymmetric(t *testing.T) {
	v1 := &domain.BehavioralVector{CommunicationDensity: 0.8, CompetitiveIntensity: 0.3, ScheduleReliability: 0.6}
	v2 := &domain.BehavioralVector{CommunicationDensity: 0.2, CompetitiveIntensity: 0.9, ScheduleReliability: 0.5}
	env := newTrustEnv(
		domain.Identity{ID: "alice", TrustScore: 0.7, Vector: v1},
		domain.Identity{ID: "bob", TrustScore: 0.4, Vector: v2},
	)

	forward, err := env.trust.Compatibility(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("compatibility failed: %v", err)
	}
	reverse, err := env.trust.Compatibility(context.Background(), "bob", "alice")
	if err != nil {
		t.Fatalf("compatibility failed: %v", err)
	}
	if math.Abs(forward.Score-reverse.Score) > 1e-9 {
		t.Fatalf("compatibility must be symmetric: %f vs %f", forward.Score, reverse.Score)
	}
	if forward.Interpretation == "" {
		t.Fatalf("expected an interpretation band")
	}
}

func TestSubmitAssessmentBuildsVector(t *testing.T) {
	env := newTrustEnv(domain.Identity{ID: "alice"})

	vector, tags, err := env.trust.SubmitAssessment(context.Background(), "alice",
		[]int{5, 5, 1, 1, 3, 3, 2, 2, 4, 4})
	if err != nil {
		t.Fatalf("assessment failed: %v", err)
	}
	if vector.CommunicationDensity != 1.0 || vector.CompetitiveIntensity != 0.2 ||
		vector.ScheduleReliability != 0.6 || vector.ToxicityTolerance != 0.4 ||
		vector.MentorshipPropensity != 0.8 {
		t.Fatalf("unexpected vector %+v", vector)
	}

	expectTags := map[string]bool{"Chatty": true, "Casual": true, "Sherpa": true, "Safe Space": true}
	if len(tags) != len(expectTags) {
		t.Fatalf("unexpected tags %v", tags)
	}
	for _, tag := range tags {
		if !expectTags[tag] {
			t.Fatalf("unexpected tag %q in %v", tag, tags)
		}
	}

	alice, _ := env.identity.Get(context.Background(), "alice")
	if alice.Vector == nil || *alice.Vector != vector {
		t.Fatalf("vector not persisted")
	}
}

func TestSubmitAssessmentValidation(t *testing.T) {
	env := newTrustEnv(domain.Identity{ID: "alice"})

	if _, _, err := env.trust.SubmitAssessment(context.Background(), "alice", []int{1, 2, 3}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected length rejection got %v", err)
	}
	if _, _, err := env.trust.SubmitAssessment(context.Background(), "alice",
		[]int{0, 5, 1, 1, 3, 3, 2, 2, 4, 4}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected range rejection got %v", err)
	}
}

func TestProfileReportsGraphCounts(t *testing.T) {
	env := newTrustEnv(
		domain.Identity{ID: "alice", TrustScore: 0.5},
		domain.Identity{ID: "bob", TrustScore: 0.5},
		domain.Identity{ID: "carol", TrustScore: 0.5},
	)
	if _, err := env.trust.Endorse(context.Background(), "alice", "bob", "positive"); err != nil {
		t.Fatalf("endorse failed: %v", err)
	}
	if _, err := env.trust.Endorse(context.Background(), "carol", "bob", "skilled"); err != nil {
		t.Fatalf("endorse failed: %v", err)
	}

	profile, err := env.trust.Profile(context.Background(), "bob")
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.IncomingCount != 2 || profile.OutgoingCount != 0 {
		t.Fatalf("unexpected counts %+v", profile)
	}
	if profile.Identity.Endorsements.Total() != 2 {
		t.Fatalf("unexpected endorsement totals %+v", profile.Identity.Endorsements)
	}
}
