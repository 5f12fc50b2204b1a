package claim

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"cmcs-backend/internal/domain/claim"
)

// Upload is an optional supporting document attached to a submission.
type Upload struct {
	FileName string
	Reader   io.Reader
}

type SubmitInput struct {
	HoursWorked float64
	Notes       string
	File        *Upload
}

// ListFilter mirrors the query string; Status is parsed case-insensitively.
type ListFilter struct {
	Status  string
	OwnerID string
}

type ClaimDTO struct {
	ClaimID           string          `json:"claim_id"`
	LecturerID        string          `json:"lecturer_id"`
	LecturerName      string          `json:"lecturer_name"`
	HoursWorked       float64         `json:"hours_worked"`
	HourlyRate        float64         `json:"hourly_rate"`
	ClaimAmount       decimal.Decimal `json:"claim_amount"`
	StoredClaimAmount decimal.Decimal `json:"stored_claim_amount"`
	Status            string          `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	DateSubmitted     time.Time       `json:"date_submitted"`
	StatusUpdatedAt   time.Time       `json:"status_updated_at"`
	HasDocument       bool            `json:"has_document"`
	OriginalFileName  string          `json:"original_file_name,omitempty"`
}

func toDTO(c *claim.Claim) *ClaimDTO {
	dto := &ClaimDTO{
		ClaimID:           c.ClaimID,
		LecturerID:        c.LecturerID,
		LecturerName:      c.LecturerName,
		HoursWorked:       c.HoursWorked,
		HourlyRate:        c.HourlyRate,
		ClaimAmount:       c.ClaimAmount(),
		StoredClaimAmount: c.StoredClaimAmount,
		Status:            string(c.Status),
		Notes:             c.Notes,
		DateSubmitted:     c.DateSubmitted,
		StatusUpdatedAt:   c.StatusUpdatedAt,
	}
	if _, orig, ok := c.DocumentRef(); ok {
		dto.HasDocument = true
		dto.OriginalFileName = orig
	}
	return dto
}

type StatsDTO struct {
	TotalClaims    int64            `json:"total_claims"`
	ByStatus       map[string]int64 `json:"by_status"`
	ApprovedAmount decimal.Decimal  `json:"approved_amount"`
	Lecturers      int64            `json:"lecturers"`
	TotalUsers     int64            `json:"total_users"`
}
