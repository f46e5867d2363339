package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

type ShippingRepository interface {
	Create(ctx context.Context, s model.Shipping) (model.Shipping, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Shipping, error)
	UpdateStatus(ctx context.Context, shippingID int64, status model.ShippingStatus) error
}
