package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error
	// カートの明細を全削除
	DeleteByCartID(ctx context.Context, cartID int64) error
}
