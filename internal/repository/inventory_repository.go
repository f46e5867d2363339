package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

// 在庫台帳。quantityの増減は必ずInventoryTransactionの追記とセットで行う。
// 呼び出し側のトランザクション（TxRepos経由）の中で実行されることを前提とする。
type InventoryRepository interface {
	FindByProductID(ctx context.Context, productID int64) (model.Inventory, error)

	// 在庫行が無ければquantity=0で作ってから加算し、台帳にchange=+qtyを追記
	AddStock(ctx context.Context, productID int64, qty int64, reason model.InventoryReason) (model.Inventory, error)

	// 在庫が足りるときだけ減算し、台帳にchange=-qty, reason="order"を追記。
	// 足りなければfalse（減算もしない）。UPDATE時に quantity >= qty を再検証する
	RemoveStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 台帳を新しい順に返す
	ListTransactions(ctx context.Context, productID int64) ([]model.InventoryTransaction, error)
}
