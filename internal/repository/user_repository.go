package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) error
}
