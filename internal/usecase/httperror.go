package usecase

import (
	"errors"
	"fmt"
)

// エラー種別の機械可読コード
const (
	CodeProductNotFound      = "product_not_found"
	CodeAddressNotFound      = "address_not_found"
	CodeOrderNotFound        = "order_not_found"
	CodePaymentNotFound      = "payment_not_found"
	CodeItemNotFound         = "item_not_found"
	CodeOutOfStock           = "out_of_stock"
	CodeInsufficientStock    = "insufficient_stock"
	CodeDuplicateProduct     = "duplicate_product"
	CodeEmptyOrder           = "empty_order"
	CodeInvalidQuantity      = "invalid_quantity"
	CodeOrderNotCancellable  = "order_not_cancellable"
	CodePaymentNotRefundable = "payment_not_refundable"
	CodePaymentFailed        = "payment_processing_failed"
	CodeInvalidInput         = "invalid_input"
	CodeUnauthorized         = "unauthorized"
	CodeConflict             = "conflict"
	CodeDBError              = "db_error"
)

// HTTPステータス相当の重さと機械コードを持つエラー。
// handlerのwriteErrorがそのままJSONにする。
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
