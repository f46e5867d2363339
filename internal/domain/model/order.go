package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"

	//終端
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// 注文から見た支払い状態
type OrderPaymentStatus string

const (
	OrderPaymentPending   OrderPaymentStatus = "PENDING"
	OrderPaymentCompleted OrderPaymentStatus = "COMPLETED"
	OrderPaymentFailed    OrderPaymentStatus = "FAILED"
	OrderPaymentRefunded  OrderPaymentStatus = "REFUNDED"
)

// 注文。OrderItem・Shipping・初期Paymentと同一トランザクションで作られる。
type Order struct {
	ID            int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64              `gorm:"not null;index" json:"user_id"`
	Status        OrderStatus        `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus OrderPaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`

	//送料込みの合計金額
	Total int64 `gorm:"not null" json:"total"`

	ShippingAddressID int64  `gorm:"not null" json:"shipping_address_id"`
	ShippingMethod    string `gorm:"type:varchar(30);not null" json:"shipping_method"`
	ShippingCost      int64  `gorm:"not null" json:"shipping_cost"`

	//初期Payment作成後に書き戻す
	PaymentID *int64 `gorm:"index" json:"payment_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
