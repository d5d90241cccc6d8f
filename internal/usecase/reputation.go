package usecase

import (
	"context"
	"log/slog"

	"github.com/squadup/squadup"
)

// ReputationUsecase is the single write path into the reputation ledger.
// Every delta goes through Apply so clamping and flagging stay atomic with
// the score change.
type ReputationUsecase struct {
	identity  IdentityRepository
	publisher Publisher
}

func NewReputationUsecase(identity IdentityRepository, publisher Publisher) *ReputationUsecase {
	return &ReputationUsecase{
		identity:  identity,
		publisher: publisher,
	}
}

// Apply commits the delta and notifies the identity's private channel. The
// delta event is published only after the ledger write committed.
func (uc *ReputationUsecase) Apply(ctx context.Context, identityID string, delta int, toxic bool, label string) (int, error) {
	newScore, err := uc.identity.ApplyReputation(ctx, identityID, delta, toxic)
	if err != nil {
		return 0, err
	}

	uc.publishDelta(ctx, squadup.ReputationDeltaPayload{
		IdentityID: identityID,
		Delta:      delta,
		NewScore:   newScore,
		Label:      label,
		Known:      true,
	})
	return newScore, nil
}

// PublishUnknown reports a scoring failure to the identity without touching
// the ledger. The message itself was still delivered.
func (uc *ReputationUsecase) PublishUnknown(ctx context.Context, identityID string) {
	uc.publishDelta(ctx, squadup.ReputationDeltaPayload{
		IdentityID: identityID,
		Known:      false,
	})
}

func (uc *ReputationUsecase) publishDelta(ctx context.Context, payload squadup.ReputationDeltaPayload) {
	event, err := squadup.NewEvent(squadup.EventReputationDelta, squadup.IdentityChannel(payload.IdentityID), payload)
	if err != nil {
		slog.Warn("failed to build reputation delta event",
			slog.String("error", err.Error()),
			slog.String("module", "reputation"),
		)
		return
	}
	if err := uc.publisher.Publish(ctx, event.Channel, event); err != nil {
		slog.Warn("failed to publish reputation delta",
			slog.String("error", err.Error()),
			slog.String("module", "reputation"),
		)
	}
}
