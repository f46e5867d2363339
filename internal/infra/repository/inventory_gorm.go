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

// 在庫台帳のGORM実装。
// quantityの増減と台帳追記は必ず同じメソッド内で行う。
// 呼び出し元トランザクションのtx *gorm.DBで作られるので、
// 注文やキャンセルと一緒にcommit/rollbackされる。
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) FindByProductID(ctx context.Context, productID int64) (model.Inventory, error) {
	var inv model.Inventory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&inv).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Inventory{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Inventory{}, err
	}
	return inv, nil
}

// 在庫行が無ければ0で作ってから加算し、台帳に+qtyを追記
func (r *InventoryGormRepository) AddStock(ctx context.Context, productID int64, qty int64, reason model.InventoryReason) (model.Inventory, error) {
	if qty <= 0 {
		return model.Inventory{}, errors.New("invalid quantity")
	}

	var inv model.Inventory

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", productID).
			First(&inv).Error

		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			now := time.Now()
			inv = model.Inventory{
				ProductID: productID,
				Quantity:  0,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
		} else if findErr != nil {
			return findErr
		}

		res := tx.Model(&model.Inventory{}).
			Where("id = ?", inv.ID).
			Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return res.Error
		}

		inv.Quantity += qty

		//台帳追記
		return tx.Create(&model.InventoryTransaction{
			ProductID: productID,
			Change:    qty,
			Reason:    reason,
			CreatedAt: time.Now(),
		}).Error
	})

	if err != nil {
		return model.Inventory{}, err
	}
	return inv, nil
}

// 在庫が足りるときだけ減らし、台帳に-qtyを追記。
// WHERE quantity >= ? で書き込み時に再検証するので、同時注文でも負にならない
func (r *InventoryGormRepository) RemoveStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, errors.New("invalid quantity")
	}

	res := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := r.db.WithContext(ctx).Create(&model.InventoryTransaction{
		ProductID: productID,
		Change:    -qty,
		Reason:    model.ReasonOrder,
		CreatedAt: time.Now(),
	}).Error
	if err != nil {
		return false, err
	}

	return true, nil
}

// 台帳を新しい順に返す
func (r *InventoryGormRepository) ListTransactions(ctx context.Context, productID int64) ([]model.InventoryTransaction, error) {
	var txns []model.InventoryTransaction

	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id desc").
		Find(&txns).Error
	if err != nil {
		return []model.InventoryTransaction{}, err
	}

	return txns, nil
}
