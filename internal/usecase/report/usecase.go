package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cmcs-backend/internal/domain/access"
	"cmcs-backend/internal/domain/claim"
	"cmcs-backend/internal/domain/user"
)

var (
	ErrNotApproved    = errors.New("reports are only available for approved claims")
	ErrGenerateExport = errors.New("failed to generate export")
)

const sheetName = "Approved Claims"

var exportHeaders = []string{"Claim ID", "Lecturer", "Date Submitted", "Hours Worked", "Hourly Rate", "Amount", "Notes"}

type Usecase struct {
	claims claim.Repository
	users  user.Repository
	log    *zap.Logger
	now    func() time.Time
}

func NewUsecase(claims claim.Repository, users user.Repository, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{claims: claims, users: users, log: log, now: time.Now}
}

// ClaimReport gathers report data for one approved claim.
func (u *Usecase) ClaimReport(ctx context.Context, p access.Principal, claimID string) (*ClaimReport, error) {
	if err := p.Authorize(access.ActionReport); err != nil {
		return nil, err
	}

	c, err := u.claims.GetByClaimID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, claim.ErrNotFound) {
			return nil, claim.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", claim.ErrStorage, err)
	}
	if c.Status != claim.StatusApproved {
		return nil, ErrNotApproved
	}

	// the lecturer may have been removed since; the snapshot name still stands
	var email string
	lecturer, err := u.users.GetByUserID(ctx, c.LecturerID)
	switch {
	case err == nil:
		email = lecturer.Email
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, user.ErrNotFound):
	default:
		return nil, fmt.Errorf("%w: %v", claim.ErrStorage, err)
	}

	return &ClaimReport{
		ClaimID:       c.ClaimID,
		LecturerID:    c.LecturerID,
		LecturerName:  c.LecturerName,
		LecturerEmail: email,
		HoursWorked:   c.HoursWorked,
		HourlyRate:    c.HourlyRate,
		ClaimAmount:   c.StoredClaimAmount,
		Notes:         c.Notes,
		DateSubmitted: c.DateSubmitted,
		ApprovedAt:    c.StatusUpdatedAt,
		GeneratedAt:   u.now().UTC(),
	}, nil
}

// ExportApproved renders every approved claim into an xlsx workbook and
// returns it with a suggested file name.
func (u *Usecase) ExportApproved(ctx context.Context, p access.Principal) (*bytes.Buffer, string, error) {
	if err := p.Authorize(access.ActionReport); err != nil {
		return nil, "", err
	}

	rows, err := u.claims.List(ctx, claim.Filter{Status: claim.StatusApproved})
	if err != nil {
		u.log.Error("list approved claims", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", claim.ErrStorage, err)
	}

	buf, err := renderApproved(rows)
	if err != nil {
		u.log.Error("render approved claims workbook", zap.Error(err))
		return nil, "", err
	}

	name := fmt.Sprintf("approved_claims_%s.xlsx", u.now().UTC().Format("2006-01-02"))
	u.log.Info("approved claims exported", zap.Int("claims", len(rows)), zap.String("file", name))
	return buf, name, nil
}

func exportErr(err error) error { return fmt.Errorf("%w: %v", ErrGenerateExport, err) }

// renderApproved lays out one row per claim under a styled header, followed
// by a bold total of the stored amounts. Every error wraps ErrGenerateExport.
func renderApproved(rows []claim.Claim) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, exportErr(err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, exportErr(err)
	}

	widths := []float64{36, 28, 16, 14, 14, 16, 40}
	for i, w := range widths {
		col := colName(i)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, exportErr(err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, exportErr(err)
	}
	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := writeRow(f, sheetName, 1, header...); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle); err != nil {
		return nil, exportErr(err)
	}

	total := decimal.Zero
	row := 2
	for _, c := range rows {
		amount, _ := c.StoredClaimAmount.Float64()
		if err := writeRow(f, sheetName, row,
			c.ClaimID,
			c.LecturerName,
			c.DateSubmitted.UTC().Format("2006-01-02"),
			c.HoursWorked,
			c.HourlyRate,
			amount,
			c.Notes,
		); err != nil {
			return nil, err
		}
		total = total.Add(c.StoredClaimAmount)
		row++
	}

	totalFloat, _ := total.Float64()
	if err := writeRow(f, sheetName, row, nil, nil, nil, nil, "Total", totalFloat); err != nil {
		return nil, err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, exportErr(err)
	}
	if err := f.SetCellStyle(sheetName, cell("E", row), cell("F", row), boldStyle); err != nil {
		return nil, exportErr(err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, exportErr(err)
	}
	return buf, nil
}

// writeRow fills row from column A onwards. nil values leave the cell empty.
func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		if err := f.SetCellValue(sheet, cell(colName(i), row), v); err != nil {
			return exportErr(fmt.Errorf("%s row %d: %w", sheet, row, err))
		}
	}
	return nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
