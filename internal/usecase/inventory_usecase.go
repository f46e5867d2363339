package usecase

import (
	"context"
	"net/http"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type InventoryUsecase struct {
	tx repo.TransactionManager
}

func NewInventoryUsecase(tx repo.TransactionManager) *InventoryUsecase {
	return &InventoryUsecase{tx: tx}
}

type RestockInput struct {
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason"`
}

type InventoryTransactionOutput struct {
	ID         int64     `json:"id"`
	Change     int64     `json:"change"`
	Reason     string    `json:"reason"`
	StockAfter int64     `json:"stock_after"`
	CreatedAt  time.Time `json:"created_at"`
}

type InventoryOutput struct {
	ProductID    int64                        `json:"product_id"`
	Quantity     int64                        `json:"quantity"`
	Transactions []InventoryTransactionOutput `json:"transactions"`
}

// Restock は入荷。台帳に追記しつつ在庫を加算する。
func (u *InventoryUsecase) Restock(ctx context.Context, productID int64, in RestockInput) (InventoryOutput, error) {
	if productID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}
	if in.Quantity < 1 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidQuantity, "quantity must be at least 1")
	}

	reason := model.InventoryReason(in.Reason)
	if reason == "" {
		reason = model.ReasonRestock
	}
	if reason != model.ReasonRestock && reason != model.ReasonInitialStock {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid reason")
	}

	var out InventoryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeProductNotFound, "product not found")
			}
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		inv, err := r.Inventory().AddStock(ctx, productID, in.Quantity, reason)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out = InventoryOutput{
			ProductID:    productID,
			Quantity:     inv.Quantity,
			Transactions: []InventoryTransactionOutput{},
		}
		return nil
	})

	if err != nil {
		return InventoryOutput{}, err
	}
	return out, nil
}

// GetProductInventory は現在庫と台帳を返す。
// 台帳は新しい順で、各行に適用後の在庫数を付ける。
func (u *InventoryUsecase) GetProductInventory(ctx context.Context, productID int64) (InventoryOutput, error) {
	if productID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}

	var out InventoryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeProductNotFound, "product not found")
			}
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		var quantity int64 = 0
		inv, err := r.Inventory().FindByProductID(ctx, productID)
		if err == nil {
			quantity = inv.Quantity
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		txns, err := r.Inventory().ListTransactions(ctx, productID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//新しい順なので、先頭の「適用後在庫」は現在庫と一致する
		outs := make([]InventoryTransactionOutput, 0, len(txns))
		running := quantity
		for _, t := range txns {
			outs = append(outs, InventoryTransactionOutput{
				ID:         t.ID,
				Change:     t.Change,
				Reason:     string(t.Reason),
				StockAfter: running,
				CreatedAt:  t.CreatedAt,
			})
			running -= t.Change
		}

		out = InventoryOutput{
			ProductID:    productID,
			Quantity:     quantity,
			Transactions: outs,
		}
		return nil
	})

	if err != nil {
		return InventoryOutput{}, err
	}
	return out, nil
}
