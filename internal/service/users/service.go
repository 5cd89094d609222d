package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/security"
	"clinicbook/backend/internal/service/errs"
	"clinicbook/backend/internal/store"
)

const minPasswordLen = 8

type Service struct {
	repo       store.UserRepository
	bcryptCost int
}

type Option func(*Service)

// WithBcryptCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func NewService(repo store.UserRepository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Email    string
	Username string
	Password string
	Role     domain.Role
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return domain.User{}, errs.Invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, errs.Invalid("email is invalid")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return domain.User{}, errs.Invalid("username is required")
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, errs.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	role := domain.Role(strings.ToUpper(strings.TrimSpace(string(in.Role))))
	if role == "" {
		role = domain.RolePatient
	}
	if !role.Valid() {
		return domain.User{}, errs.Invalid("role must be PATIENT or DOCTOR")
	}

	hash, err := security.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return domain.User{}, errs.Internal("failed to hash password", err)
	}

	u, err := s.repo.InsertUser(ctx, domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.User{}, errs.Conflict("email already registered")
		}
		return domain.User{}, errs.Internal("failed to create user", err)
	}
	return u, nil
}

// Get returns an active user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	if id == uuid.Nil {
		return domain.User{}, errs.Invalid("user_id is required")
	}
	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, errs.NotFound(fmt.Sprintf("user %s not found", id))
		}
		return domain.User{}, errs.Internal("failed to load user", err)
	}
	if !u.Active() {
		return domain.User{}, errs.NotFound(fmt.Sprintf("user %s not found", id))
	}
	return u, nil
}
