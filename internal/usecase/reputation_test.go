package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

func TestReputationApply(t *testing.T) {
	repo := newMemIdentityRepo(domain.Identity{ID: "alice", Reputation: 95})
	pub := &capturePublisher{}
	uc := NewReputationUsecase(repo, pub)

	newScore, err := uc.Apply(context.Background(), "alice", 2, false, "positive")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if newScore != 97 {
		t.Fatalf("expected score 97 got %d", newScore)
	}

	deltas := pub.byKind(squadup.EventReputationDelta)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta event got %d", len(deltas))
	}
	var payload squadup.ReputationDeltaPayload
	if err := json.Unmarshal(deltas[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !payload.Known || payload.NewScore != 97 || payload.Delta != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if deltas[0].Channel != squadup.IdentityChannel("alice") {
		t.Fatalf("delta published to wrong channel: %s", deltas[0].Channel)
	}
}

func TestReputationApplyClampsAtCeiling(t *testing.T) {
	repo := newMemIdentityRepo(domain.Identity{ID: "alice", Reputation: 99})
	uc := NewReputationUsecase(repo, &capturePublisher{})

	newScore, err := uc.Apply(context.Background(), "alice", 2, false, "positive")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if newScore != 100 {
		t.Fatalf("expected clamp at 100 got %d", newScore)
	}
}

func TestReputationApplyClampsAtFloorAndFlags(t *testing.T) {
	repo := newMemIdentityRepo(domain.Identity{ID: "bob", Reputation: 3})
	uc := NewReputationUsecase(repo, &capturePublisher{})

	newScore, err := uc.Apply(context.Background(), "bob", -5, true, "toxic")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if newScore != 0 {
		t.Fatalf("expected clamp at 0 got %d", newScore)
	}

	bob, _ := repo.Get(context.Background(), "bob")
	if bob.ToxicityFlags != 1 {
		t.Fatalf("expected 1 toxicity flag got %d", bob.ToxicityFlags)
	}
}

func TestReputationApplyUnknownIdentity(t *testing.T) {
	uc := NewReputationUsecase(newMemIdentityRepo(), &capturePublisher{})

	_, err := uc.Apply(context.Background(), "ghost", 1, false, "positive")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound got %v", err)
	}
}

func TestReputationPublishUnknown(t *testing.T) {
	pub := &capturePublisher{}
	uc := NewReputationUsecase(newMemIdentityRepo(), pub)

	uc.PublishUnknown(context.Background(), "alice")

	deltas := pub.byKind(squadup.EventReputationDelta)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta event got %d", len(deltas))
	}
	var payload squadup.ReputationDeltaPayload
	if err := json.Unmarshal(deltas[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Known {
		t.Fatalf("expected unknown delta, got %+v", payload)
	}
}
