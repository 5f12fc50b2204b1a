package mysql

import (
	"context"

	"gorm.io/gorm"

	"cmcs-backend/internal/domain/claim"
	"cmcs-backend/internal/domain/uow"
)

var _ uow.UnitOfWork = (*GormUoW)(nil)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Claims: &ClaimRepository{db: tx},
		Users:  &UserRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

// WithinClaimTx loads the claim inside the transaction. Status writes made by
// fn are expected to go through the compare-and-set UpdateStatus, so no row
// lock is taken.
func (u *GormUoW) WithinClaimTx(ctx context.Context, claimID string, fn func(r uow.Repos, c *claim.Claim) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		c, err := r.Claims.GetByClaimID(ctx, claimID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
}
