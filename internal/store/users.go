package store

import (
	"context"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
)

type UserRepository interface {
	InsertUser(ctx context.Context, u domain.User) (domain.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
}
