package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	claimDomain "cmcs-backend/internal/domain/claim"
)

type ClaimRepository struct{ db *gorm.DB }

func NewClaimRepository(db *gorm.DB) *ClaimRepository { return &ClaimRepository{db: db} }

func (r *ClaimRepository) Create(ctx context.Context, c *claimDomain.Claim) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ClaimRepository) GetByClaimID(ctx context.Context, claimID string) (*claimDomain.Claim, error) {
	var out claimDomain.Claim
	res := r.db.WithContext(ctx).Where("claim_id = ?", claimID).First(&out)
	return &out, res.Error
}

func (r *ClaimRepository) List(ctx context.Context, f claimDomain.Filter) ([]claimDomain.Claim, error) {
	q := r.db.WithContext(ctx).Model(&claimDomain.Claim{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.LecturerID != "" {
		q = q.Where("lecturer_id = ?", f.LecturerID)
	}
	var out []claimDomain.Claim
	res := q.Order("date_submitted DESC, id DESC").Find(&out)
	return out, res.Error
}

// UpdateStatus only writes when the row still holds from.
func (r *ClaimRepository) UpdateStatus(ctx context.Context, claimID string, from, to claimDomain.Status, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&claimDomain.Claim{}).
		Where("claim_id = ? AND status = ?", claimID, from).
		Updates(map[string]any{
			"status":            to,
			"status_updated_at": at.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ClaimRepository) Delete(ctx context.Context, claimID string) error {
	res := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Delete(&claimDomain.Claim{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ClaimRepository) CountByStatus(ctx context.Context) (map[claimDomain.Status]int64, error) {
	var rows []struct {
		Status claimDomain.Status
		N      int64
	}
	res := r.db.WithContext(ctx).
		Model(&claimDomain.Claim{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	out := make(map[claimDomain.Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *ClaimRepository) SumStoredAmount(ctx context.Context, s claimDomain.Status) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&claimDomain.Claim{}).
		Select("COALESCE(SUM(stored_claim_amount), 0)").
		Where("status = ?", s).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Round(2), nil
}
