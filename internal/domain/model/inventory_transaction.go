package model

import "time"

// 在庫変動の理由
type InventoryReason string

const (
	//商品登録時の初期在庫
	ReasonInitialStock InventoryReason = "initial_stock"

	//入荷
	ReasonRestock InventoryReason = "restock"

	//注文確定による引き当て
	ReasonOrder InventoryReason = "order"

	//注文キャンセルによる在庫戻し
	ReasonCancelRestore InventoryReason = "cancel-restore"
)

// 在庫台帳。追記専用。
// ある商品のchangeの合計は常にInventory.Quantityと一致する。
type InventoryTransaction struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	//符号付きの増減量
	Change int64 `gorm:"not null" json:"change"`

	Reason    InventoryReason `gorm:"type:varchar(30);not null" json:"reason"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
