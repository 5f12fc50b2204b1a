package claim

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Filter is a pure predicate over claims; zero fields match everything.
type Filter struct {
	Status     Status
	LecturerID string
}

type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByClaimID(ctx context.Context, claimID string) (*Claim, error)
	// List returns matching claims newest first.
	List(ctx context.Context, f Filter) ([]Claim, error)
	// UpdateStatus is a compare-and-set: it only writes when the stored status
	// still equals from, and reports whether a row changed.
	UpdateStatus(ctx context.Context, claimID string, from, to Status, at time.Time) (bool, error)
	Delete(ctx context.Context, claimID string) error
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	SumStoredAmount(ctx context.Context, s Status) (decimal.Decimal, error)
}
