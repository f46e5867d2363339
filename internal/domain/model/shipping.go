package model

import "time"

type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "PENDING"
	ShippingStatusPreparing ShippingStatus = "PREPARING"
	ShippingStatusShipped   ShippingStatus = "SHIPPED"
	ShippingStatusDelivered ShippingStatus = "DELIVERED"
	ShippingStatusCancelled ShippingStatus = "CANCELLED"
)

// 配送。注文と同一トランザクションでPENDINGで作られる。
type Shipping struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64          `gorm:"not null;index" json:"order_id"`
	AddressID      int64          `gorm:"not null" json:"address_id"`
	ShippingMethod string         `gorm:"type:varchar(30);not null" json:"shipping_method"`
	Status         ShippingStatus `gorm:"type:varchar(20);not null" json:"status"`
	ShippingCost   int64          `gorm:"not null" json:"shipping_cost"`
	TrackingNumber *string        `gorm:"type:varchar(64)" json:"tracking_number"`
	ShippedAt      *time.Time     `json:"shipped_at"`
	DeliveredAt    *time.Time     `json:"delivered_at"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
