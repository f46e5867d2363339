package model

import "time"

// 商品ごとの在庫残。quantity >= 0。
// quantityを直接SETするAPIは存在しない。必ず台帳（InventoryTransaction）
// の追記とセットで増減させる。
type Inventory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;uniqueIndex" json:"product_id"`
	Quantity  int64     `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
