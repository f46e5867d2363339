package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.OrderPaymentStatus) error

	//初期Payment作成後の書き戻し
	SetPaymentID(ctx context.Context, orderID int64, paymentID int64) error
}
