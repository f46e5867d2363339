package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

type CartRepository interface {
	// ユーザーの非ゲストカートを取得し、無ければ作成
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)

	// セッションのゲストカートを取得し、無ければ作成
	GetOrCreateGuestBySessionID(ctx context.Context, sessionID string) (model.Cart, error)

	// セッションのゲストカートを取得（無ければErrNotFound）
	FindGuestBySessionID(ctx context.Context, sessionID string) (model.Cart, error)

	// ユーザーの非ゲストカートを取得（無ければErrNotFound。作らない）
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)

	// カート本体を削除（マージ後のゲストカート破棄用）
	DeleteByID(ctx context.Context, cartID int64) error
}
