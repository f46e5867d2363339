package repository

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーの非ゲストカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	return r.getOrCreate(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND is_guest = ?", userID, false)
	}, func(now time.Time) model.Cart {
		uid := userID
		return model.Cart{
			UserID:    &uid,
			SessionID: nil,
			IsGuest:   false,
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
}

// セッションのゲストカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateGuestBySessionID(ctx context.Context, sessionID string) (model.Cart, error) {
	return r.getOrCreate(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("session_id = ? AND is_guest = ?", sessionID, true)
	}, func(now time.Time) model.Cart {
		sid := sessionID
		return model.Cart{
			UserID:    nil,
			SessionID: &sid,
			IsGuest:   true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
}

// 探す→無ければ作る。一意制約に弾かれたら取り直す
func (r *CartGormRepository) getOrCreate(
	ctx context.Context,
	where func(tx *gorm.DB) *gorm.DB,
	build func(now time.Time) model.Cart,
) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := where(tx.Clauses(clause.Locking{Strength: "UPDATE"})).
			Order("id desc").
			First(&cart).Error

		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		newCart := build(time.Now())
		if err := tx.Create(&newCart).Error; err != nil {
			retryErr := where(tx).Order("id desc").First(&cart).Error
			if retryErr == nil {
				return nil
			}
			return err
		}

		cart = newCart
		return nil
	})

	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// セッションのゲストカートを取得
func (r *CartGormRepository) FindGuestBySessionID(ctx context.Context, sessionID string) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("session_id = ? AND is_guest = ?", sessionID, true).
		Order("id desc").
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// ユーザーの非ゲストカートを取得（作らない）
func (r *CartGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_guest = ?", userID, false).
		Order("id desc").
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// カート本体を削除（明細も一緒に消す）
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.Cart{}, cartID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
