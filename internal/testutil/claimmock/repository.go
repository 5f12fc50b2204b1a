package claimmock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "cmcs-backend/internal/domain/claim"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset reads return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn          func(ctx context.Context, c *domain.Claim) error
	GetByClaimIDFn    func(ctx context.Context, claimID string) (*domain.Claim, error)
	ListFn            func(ctx context.Context, f domain.Filter) ([]domain.Claim, error)
	UpdateStatusFn    func(ctx context.Context, claimID string, from, to domain.Status, at time.Time) (bool, error)
	DeleteFn          func(ctx context.Context, claimID string) error
	CountByStatusFn   func(ctx context.Context) (map[domain.Status]int64, error)
	SumStoredAmountFn func(ctx context.Context, s domain.Status) (decimal.Decimal, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Claim) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByClaimID(ctx context.Context, claimID string) (*domain.Claim, error) {
	if m.GetByClaimIDFn != nil {
		return m.GetByClaimIDFn(ctx, claimID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Claim, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) UpdateStatus(ctx context.Context, claimID string, from, to domain.Status, at time.Time) (bool, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, claimID, from, to, at)
	}
	return true, nil
}

func (m *Repo) Delete(ctx context.Context, claimID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, claimID)
	}
	return nil
}

func (m *Repo) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) SumStoredAmount(ctx context.Context, s domain.Status) (decimal.Decimal, error) {
	if m.SumStoredAmountFn != nil {
		return m.SumStoredAmountFn(ctx, s)
	}
	return decimal.Zero, context.Canceled
}
