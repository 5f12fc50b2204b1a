package user

import (
	"context"

	"cmcs-backend/internal/domain/access"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUserID(ctx context.Context, userID string) (*User, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role access.Role) (int64, error)
}
