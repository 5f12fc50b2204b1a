package claim

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("claim not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("claim not in a state that allows this action")
	ErrStatusConflict    = errors.New("claim status changed concurrently")
	ErrStorage           = errors.New("claim storage failure")
)

type Status string

const (
	StatusPending             Status = "Pending"
	StatusCoordinatorApproved Status = "CoordinatorApproved"
	StatusApproved            Status = "Approved"
	StatusRejected            Status = "Rejected"
)

var Statuses = []Status{StatusPending, StatusCoordinatorApproved, StatusApproved, StatusRejected}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

const (
	MinHours = 1
	MaxHours = 180
	MinRate  = 100
	MaxRate  = 2000

	// Hours in [AutoApproveMinHours, AutoApproveMaxHours] skip human review.
	AutoApproveMinHours = 40
	AutoApproveMaxHours = 180

	MaxNotesLen = 200
)

type Claim struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	ClaimID           string          `gorm:"size:32;uniqueIndex:ux_claims_claim_id" json:"claim_id"`
	LecturerID        string          `gorm:"size:32;not null;index:idx_claims_lecturer" json:"lecturer_id"`
	LecturerName      string          `gorm:"size:101;not null" json:"lecturer_name"`
	HoursWorked       float64         `gorm:"not null" json:"hours_worked"`
	HourlyRate        float64         `gorm:"not null" json:"hourly_rate"`
	StoredClaimAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"stored_claim_amount"`
	Status            Status          `gorm:"type:varchar(32);not null;index:idx_claims_status" json:"status"`
	Notes             string          `gorm:"size:200" json:"notes,omitempty"`
	DateSubmitted     time.Time       `gorm:"not null;index:idx_claims_submitted" json:"date_submitted"`
	StatusUpdatedAt   time.Time       `json:"status_updated_at"`
	DocumentName      *string         `gorm:"size:128" json:"-"`
	OriginalFileName  *string         `gorm:"size:255" json:"original_file_name,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Claim) TableName() string { return "claims" }

// Amount is hours × rate rounded to cents.
func Amount(hours, rate float64) decimal.Decimal {
	return decimal.NewFromFloat(hours).Mul(decimal.NewFromFloat(rate)).Round(2)
}

// ClaimAmount is always derived from the current hours and rate, unlike
// StoredClaimAmount which is frozen at submission.
func (c *Claim) ClaimAmount() decimal.Decimal { return Amount(c.HoursWorked, c.HourlyRate) }

func (c *Claim) HasDocument() bool { return c.DocumentName != nil && *c.DocumentName != "" }

func (c *Claim) AttachDocument(storedName, originalFileName string) {
	c.DocumentName = &storedName
	c.OriginalFileName = &originalFileName
}

// DocumentRef returns the stored and original names, or ok=false when the claim
// has no supporting document.
func (c *Claim) DocumentRef() (storedName, originalFileName string, ok bool) {
	if !c.HasDocument() {
		return "", "", false
	}
	if c.OriginalFileName != nil {
		originalFileName = *c.OriginalFileName
	}
	return *c.DocumentName, originalFileName, true
}

// InitialStatus applies the auto-approval rule.
func InitialStatus(hours float64) Status {
	if hours >= AutoApproveMinHours && hours <= AutoApproveMaxHours {
		return StatusApproved
	}
	return StatusPending
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, msg string) { e.Fields = append(e.Fields, FieldError{field, msg}) }

// Validate checks the submitted fields. It returns nil or a *ValidationError.
func Validate(hours, rate float64, notes string) error {
	ve := &ValidationError{}
	// negated so NaN fails the range check
	if !(hours >= MinHours && hours <= MaxHours) {
		ve.add("hours_worked", fmt.Sprintf("must be between %d and %d", MinHours, MaxHours))
	}
	if !(rate >= MinRate && rate <= MaxRate) {
		ve.add("hourly_rate", fmt.Sprintf("must be between %d and %d", MinRate, MaxRate))
	}
	if utf8.RuneCountInString(notes) > MaxNotesLen {
		ve.add("notes", fmt.Sprintf("must be at most %d characters", MaxNotesLen))
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

type NewClaimInput struct {
	ClaimID      string
	LecturerID   string
	LecturerName string
	HoursWorked  float64
	HourlyRate   float64
	Notes        string
	SubmittedAt  time.Time
}

// New validates the input and builds a claim with its initial status and
// frozen amount. Nothing is persisted.
func New(in NewClaimInput) (*Claim, error) {
	if err := Validate(in.HoursWorked, in.HourlyRate, in.Notes); err != nil {
		return nil, err
	}
	at := in.SubmittedAt.UTC()
	return &Claim{
		ClaimID:           in.ClaimID,
		LecturerID:        in.LecturerID,
		LecturerName:      in.LecturerName,
		HoursWorked:       in.HoursWorked,
		HourlyRate:        in.HourlyRate,
		StoredClaimAmount: Amount(in.HoursWorked, in.HourlyRate),
		Status:            InitialStatus(in.HoursWorked),
		Notes:             in.Notes,
		DateSubmitted:     at,
		StatusUpdatedAt:   at,
	}, nil
}
