package uow

import (
	"context"

	"cmcs-backend/internal/domain/claim"
	"cmcs-backend/internal/domain/user"
)

type Repos struct {
	Claims claim.Repository
	Users  user.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: load the claim first, then pass it in
	WithinClaimTx(ctx context.Context, claimID string, fn func(r Repos, c *claim.Claim) error) error
}
