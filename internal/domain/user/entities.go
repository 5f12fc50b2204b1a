package user

import (
	"errors"
	"strings"
	"time"

	"cmcs-backend/internal/domain/access"
)

var ErrNotFound = errors.New("user not found")

// User is the profile a claim snapshots its lecturer name and rate from.
// Credentials live with the external session provider.
type User struct {
	ID         uint64      `gorm:"primaryKey;column:id" json:"-"`
	UserID     string      `gorm:"size:32;uniqueIndex:ux_users_user_id" json:"user_id"`
	Username   string      `gorm:"size:50;not null;uniqueIndex:ux_users_username" json:"username"`
	Role       access.Role `gorm:"type:varchar(20);not null;index:idx_users_role" json:"role"`
	FirstName  string      `gorm:"size:50;not null" json:"first_name"`
	LastName   string      `gorm:"size:50;not null" json:"last_name"`
	Email      string      `gorm:"size:255;not null" json:"email"`
	HourlyRate float64     `gorm:"not null;default:0" json:"hourly_rate"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string { return strings.TrimSpace(u.FirstName + " " + u.LastName) }
