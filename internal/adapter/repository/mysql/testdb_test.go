package mysql

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	claimDomain "cmcs-backend/internal/domain/claim"
	userDomain "cmcs-backend/internal/domain/user"
)

// openTestDB creates a named in-memory sqlite DB shared by every pooled
// connection, so transactions and plain queries see the same tables.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&userDomain.User{}, &claimDomain.Claim{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func makeClaim(claimID, lecturerID string, status claimDomain.Status, submitted time.Time) *claimDomain.Claim {
	return &claimDomain.Claim{
		ClaimID:           claimID,
		LecturerID:        lecturerID,
		LecturerName:      "Ada Lovelace",
		HoursWorked:       10,
		HourlyRate:        200,
		StoredClaimAmount: decimal.NewFromInt(2000),
		Status:            status,
		DateSubmitted:     submitted.UTC(),
		StatusUpdatedAt:   submitted.UTC(),
	}
}
