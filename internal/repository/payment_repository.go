package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)
	Update(ctx context.Context, p model.Payment) error
}
