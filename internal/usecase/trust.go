package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/squadup/squadup/internal/domain"
)

const topEndorserLimit = 10

// EndorseResult reports the state of the edge and the target's counters
// after an endorsement.
type EndorseResult struct {
	Category domain.EndorsementCategory `json:"category"`
	Weight   float64                    `json:"weight"`
	Created  bool                       `json:"created"`
	Counts   domain.EndorsementCounts   `json:"counts"`
	Total    int                        `json:"total"`
}

// EndorsementSummary is the trust view of a single identity.
type EndorsementSummary struct {
	IdentityID    string                   `json:"identityId"`
	TrustScore    float64                  `json:"trustScore"`
	Counts        domain.EndorsementCounts `json:"counts"`
	Total         int                      `json:"total"`
	IncomingCount int64                    `json:"incomingCount"`
	OutgoingCount int64                    `json:"outgoingCount"`
	TopEndorsers  []domain.TrustEdge       `json:"topEndorsers"`
	Endorsed      []domain.TrustEdge       `json:"endorsed"`
}

// CompatibilityReport is a scored pairing with its display band.
type CompatibilityReport struct {
	domain.CompatibilityResult
	Interpretation string `json:"interpretation"`
}

// Profile is the public view of an identity.
type Profile struct {
	Identity      domain.Identity `json:"identity"`
	PlayStyleTags []string        `json:"playStyleTags"`
	IncomingCount int64           `json:"incomingCount"`
	OutgoingCount int64           `json:"outgoingCount"`
}

// TrustUsecase owns the trust graph, endorsements, behavioral assessment,
// and compatibility scoring.
type TrustUsecase struct {
	trust         TrustRepository
	identity      IdentityRepository
	notifications *NotificationUsecase
}

func NewTrustUsecase(trust TrustRepository, identity IdentityRepository, notifications *NotificationUsecase) *TrustUsecase {
	return &TrustUsecase{
		trust:         trust,
		identity:      identity,
		notifications: notifications,
	}
}

// Endorse records the endorsement on the trust edge and the target's
// counters, then nudges the target's trust score. The nudge deliberately
// runs without synchronization against concurrent endorsements; at a
// hundredth per endorsement a lost nudge is noise.
func (uc *TrustUsecase) Endorse(ctx context.Context, sourceID, targetID, category string) (EndorseResult, error) {
	if sourceID == targetID {
		return EndorseResult{}, domain.InvalidStateError{Reason: "cannot endorse yourself"}
	}
	cat, err := domain.ParseEndorsementCategory(category)
	if err != nil {
		return EndorseResult{}, err
	}

	source, err := uc.identity.Get(ctx, sourceID)
	if err != nil {
		return EndorseResult{}, err
	}
	if _, err := uc.identity.Get(ctx, targetID); err != nil {
		return EndorseResult{}, err
	}

	edge, err := uc.trust.Upsert(ctx, sourceID, targetID)
	if err != nil {
		return EndorseResult{}, err
	}
	counts, err := uc.identity.IncrementEndorsement(ctx, targetID, cat)
	if err != nil {
		return EndorseResult{}, err
	}

	if err := uc.identity.NudgeTrust(ctx, targetID, domain.TrustNudge); err != nil {
		slog.Warn("failed to nudge trust score",
			slog.String("error", err.Error()),
			slog.String("identity", targetID),
			slog.String("module", "trust"),
		)
	}

	if err := uc.notifications.Notify(ctx, targetID, "endorsement",
		fmt.Sprintf("%s endorsed you as %s.", source.Username, string(cat))); err != nil {
		slog.Warn("failed to notify endorsement",
			slog.String("error", err.Error()),
			slog.String("module", "trust"),
		)
	}

	return EndorseResult{
		Category: cat,
		Weight:   edge.Weight,
		Created:  edge.Weight == domain.EdgeInitialWeight,
		Counts:   counts,
		Total:    counts.Total(),
	}, nil
}

// Endorsements summarizes the identity's position in the trust graph.
func (uc *TrustUsecase) Endorsements(ctx context.Context, identityID string) (EndorsementSummary, error) {
	identity, err := uc.identity.Get(ctx, identityID)
	if err != nil {
		return EndorsementSummary{}, err
	}

	incoming, outgoing, err := uc.trust.Counts(ctx, identityID)
	if err != nil {
		return EndorsementSummary{}, err
	}
	topEndorsers, err := uc.trust.Incoming(ctx, identityID, topEndorserLimit)
	if err != nil {
		return EndorsementSummary{}, err
	}
	endorsed, err := uc.trust.Outgoing(ctx, identityID, topEndorserLimit)
	if err != nil {
		return EndorsementSummary{}, err
	}

	return EndorsementSummary{
		IdentityID:    identityID,
		TrustScore:    identity.TrustScore,
		Counts:        identity.Endorsements,
		Total:         identity.Endorsements.Total(),
		IncomingCount: incoming,
		OutgoingCount: outgoing,
		TopEndorsers:  topEndorsers,
		Endorsed:      endorsed,
	}, nil
}

// Compatibility scores two full profiles over every behavioral dimension.
func (uc *TrustUsecase) Compatibility(ctx context.Context, firstID, secondID string) (CompatibilityReport, error) {
	first, err := uc.identity.Get(ctx, firstID)
	if err != nil {
		return CompatibilityReport{}, err
	}
	second, err := uc.identity.Get(ctx, secondID)
	if err != nil {
		return CompatibilityReport{}, err
	}

	result := domain.Compatibility(first.Vector, second.Vector, first.TrustScore, second.TrustScore)
	return CompatibilityReport{
		CompatibilityResult: result,
		Interpretation:      domain.Interpretation(result.Score),
	}, nil
}

// SubmitAssessment folds the ten questionnaire answers into the behavioral
// vector. Consecutive answer pairs map onto one dimension each, in the
// vector's field order.
func (uc *TrustUsecase) SubmitAssessment(ctx context.Context, identityID string, answers []int) (domain.BehavioralVector, []string, error) {
	if len(answers) != 10 {
		return domain.BehavioralVector{}, nil, domain.InvalidStateError{Reason: "assessment requires exactly 10 answers"}
	}
	for _, a := range answers {
		if a < 1 || a > 5 {
			return domain.BehavioralVector{}, nil, domain.InvalidStateError{Reason: "answers must be between 1 and 5"}
		}
	}

	dim := func(i int) float64 {
		return float64(answers[2*i]+answers[2*i+1]) / 10
	}
	vector := domain.BehavioralVector{
		CommunicationDensity: dim(0),
		CompetitiveIntensity: dim(1),
		ScheduleReliability:  dim(2),
		ToxicityTolerance:    dim(3),
		MentorshipPropensity: dim(4),
	}

	if err := uc.identity.UpdateVector(ctx, identityID, vector); err != nil {
		return domain.BehavioralVector{}, nil, err
	}
	return vector, playStyleTags(vector), nil
}

// Profile returns the public trust view of an identity.
func (uc *TrustUsecase) Profile(ctx context.Context, identityID string) (Profile, error) {
	identity, err := uc.identity.Get(ctx, identityID)
	if err != nil {
		return Profile{}, err
	}
	incoming, outgoing, err := uc.trust.Counts(ctx, identityID)
	if err != nil {
		return Profile{}, err
	}

	var tags []string
	if identity.Vector != nil {
		tags = playStyleTags(*identity.Vector)
	}
	return Profile{
		Identity:      identity,
		PlayStyleTags: tags,
		IncomingCount: incoming,
		OutgoingCount: outgoing,
	}, nil
}

// playStyleTags renders the vector's pronounced dimensions as display tags.
// Middling values produce no tag.
func playStyleTags(v domain.BehavioralVector) []string {
	tags := []string{}
	pick := func(value float64, high, low string) {
		if value >= 0.6 {
			tags = append(tags, high)
		} else if value <= 0.4 {
			tags = append(tags, low)
		}
	}
	pick(v.CommunicationDensity, "Chatty", "Silent")
	pick(v.CompetitiveIntensity, "Tryhard", "Casual")
	pick(v.MentorshipPropensity, "Sherpa", "Solo Player")
	pick(v.ToxicityTolerance, "Thick Skin", "Safe Space")
	return tags
}
