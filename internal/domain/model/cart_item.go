package model

import "time"

// カートの明細。quantity >= 1。
// priceは追加時点の販売価格スナップショット。カタログ価格が変わっても
// カート表示は安定する（決済時はカタログの現在価格で再計算する）。
type CartItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64 `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID int64 `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`

	//追加時点の販売価格スナップショット
	Price int64 `gorm:"not null" json:"price"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
