package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) InsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	m := u
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.User{}, mapWriteError(err)
	}
	return m, nil
}

func (r *UserRepo) FindUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return findUserByID(ctx, r.db, id)
}

func (r *UserRepo) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().Model(&u).Where("email = ?", email).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func findUserByID(ctx context.Context, db bun.IDB, id uuid.UUID) (domain.User, error) {
	var u domain.User
	err := db.NewSelect().Model(&u).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}
