package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimReport is the data a payment report is rendered from.
type ClaimReport struct {
	ClaimID       string          `json:"claim_id"`
	LecturerID    string          `json:"lecturer_id"`
	LecturerName  string          `json:"lecturer_name"`
	LecturerEmail string          `json:"lecturer_email"`
	HoursWorked   float64         `json:"hours_worked"`
	HourlyRate    float64         `json:"hourly_rate"`
	ClaimAmount   decimal.Decimal `json:"claim_amount"`
	Notes         string          `json:"notes,omitempty"`
	DateSubmitted time.Time       `json:"date_submitted"`
	ApprovedAt    time.Time       `json:"approved_at"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
