package usecase

import (
	"context"
	"strings"

	"github.com/squadup/squadup/internal/domain"
)

// IdentityUsecase handles registration and lookup. Registration is an
// upsert: re-registering updates the username and nothing else.
type IdentityUsecase struct {
	identity IdentityRepository
}

func NewIdentityUsecase(identity IdentityRepository) *IdentityUsecase {
	return &IdentityUsecase{identity: identity}
}

func (uc *IdentityUsecase) Register(ctx context.Context, id, username string, role domain.Role) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Identity{}, domain.InvalidStateError{Reason: "username is required"}
	}

	identity := domain.Identity{
		ID:         id,
		Username:   username,
		Role:       role,
		Reputation: 50,
		TrustScore: domain.DefaultTrustScore,
	}
	if err := uc.identity.Upsert(ctx, identity); err != nil {
		return domain.Identity{}, err
	}
	return uc.identity.Get(ctx, id)
}

func (uc *IdentityUsecase) Get(ctx context.Context, id string) (domain.Identity, error) {
	return uc.identity.Get(ctx, id)
}
