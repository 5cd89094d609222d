package grpc

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/service/users"
)

type UsersServer struct {
	svc usersService
	log *slog.Logger
}

type usersService interface {
	Create(ctx context.Context, in users.CreateInput) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
}

func NewUsersServer(svc usersService, log *slog.Logger) *UsersServer {
	if log == nil {
		log = slog.Default()
	}
	return &UsersServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.users")),
	}
}

func (s *UsersServer) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateUser"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	u, err := s.svc.Create(ctx, users.CreateInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return nil, toStatus(log, err, "user create", slog.String("role", req.Role))
	}

	log.Info("user created", slog.String("user_id", u.ID.String()), slog.String("role", string(u.Role)))
	return &UserResponse{User: toWireUser(u)}, nil
}

func (s *UsersServer) GetUser(ctx context.Context, req *GetUserRequest) (*UserResponse, error) {
	log := s.log.With(slog.String("rpc", "GetUser"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}

	u, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, toStatus(log, err, "user get", slog.String("user_id", id.String()))
	}
	return &UserResponse{User: toWireUser(u)}, nil
}

func toWireUser(u domain.User) *User {
	return &User{
		ID:        u.ID.String(),
		Email:     u.Email,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.UTC(),
	}
}
