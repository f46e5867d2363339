package model

import "time"

// 注文明細。作成後は不変。
// priceは注文確定時点のカタログ販売価格スナップショット。
type OrderItem struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64     `gorm:"not null;index" json:"order_id"`
	ProductID     int64     `gorm:"not null;index" json:"product_id"`
	TitleSnapshot string    `gorm:"type:varchar(255);not null" json:"title_snapshot"`
	Price         int64     `gorm:"not null" json:"price"`
	Quantity      int64     `gorm:"not null" json:"quantity"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
