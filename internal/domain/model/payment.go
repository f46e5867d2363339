package model

import "time"

// pending → processing → completed | failed、completed → refunded
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// 支払い。注文作成時にPENDINGで1件作られ、プロセッサが後から進める。
type Payment struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64         `gorm:"not null;index" json:"order_id"`
	PaymentMethod string        `gorm:"type:varchar(30);not null" json:"payment_method"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//ゲートウェイの外部参照。成功時のみ入る
	TransactionID *string `gorm:"type:varchar(64)" json:"transaction_id"`

	Amount     int64      `gorm:"not null" json:"amount"`
	PaidAt     *time.Time `json:"paid_at"`
	RefundedAt *time.Time `json:"refunded_at"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
