package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	//販売価格が原価を下回っている
	ErrSellingPriceBelowCost = errors.New("selling price below cost price")

	//価格がマイナス
	ErrNegativePrice = errors.New("price must be >= 0")
)

// 書籍商品。価格は最小通貨単位のint64で持つ。
// カート・注文には追加時点の価格スナップショットが残るので、
// 参照された後にカタログ価格を変えてもよい。
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Author      string `gorm:"type:varchar(255);not null" json:"author"`
	Description string `gorm:"type:text" json:"description"`

	//販売価格（selling_price >= cost_price を保存前に検証する）
	SellingPrice int64 `gorm:"not null" json:"selling_price"`

	//原価
	CostPrice int64 `gorm:"not null" json:"cost_price"`

	//付随情報（JSON文字列で保存する）
	Metadata string `gorm:"type:text" json:"metadata"`

	//画像URL（JSON配列の文字列）
	Images string `gorm:"type:text" json:"images"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 保存前の価格検証。モデルのフックではなく呼び出し側が実行する。
func ValidateProductPrices(sellingPrice, costPrice int64) error {
	if sellingPrice < 0 || costPrice < 0 {
		return ErrNegativePrice
	}
	if sellingPrice < costPrice {
		return ErrSellingPriceBelowCost
	}
	return nil
}
