package usecase

import (
	"context"
	"net/http"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// PaymentGateway は決済ゲートウェイの抽象。
// 成功時はゲートウェイ発行のトランザクションIDを返す。
type PaymentGateway interface {
	Charge(ctx context.Context, p model.Payment, details PaymentDetails) (string, error)
}

type PaymentDetails struct {
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}

type PaymentUsecase struct {
	tx         repo.TransactionManager
	gateway    PaymentGateway
	maxRetries int
	logger     *zap.Logger
}

func NewPaymentUsecase(tx repo.TransactionManager, gateway PaymentGateway, maxRetries int, logger *zap.Logger) *PaymentUsecase {
	if maxRetries < 1 {
		maxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentUsecase{tx: tx, gateway: gateway, maxRetries: maxRetries, logger: logger}
}

type PaymentOutput struct {
	ID            int64      `json:"id"`
	OrderID       int64      `json:"order_id"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	TransactionID *string    `json:"transaction_id"`
	Amount        int64      `json:"amount"`
	PaidAt        *time.Time `json:"paid_at"`
	RefundedAt    *time.Time `json:"refunded_at"`
}

// ProcessPayment はPENDINGのPaymentをゲートウェイに投げる。
// 初回が失敗したらmaxRetries回まで再試行し、それでもダメならFAILEDで確定する。
// 成功時は注文をPROCESSINGへ、配送をPREPARINGへ進める。
func (u *PaymentUsecase) ProcessPayment(ctx context.Context, userID int64, paymentID int64, details PaymentDetails) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}

	var out PaymentOutput
	exhausted := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := u.findOwnedPayment(ctx, r, userID, paymentID)
		if err != nil {
			return err
		}

		if p.Status != model.PaymentStatusPending {
			return NewHTTPError(http.StatusConflict, CodeConflict, "payment already processed")
		}

		//処理中マーク。ゲートウェイ呼び出し前に状態を進めておく。
		//注文側のpayment_statusはPENDINGのままで、結果が出たときだけ動かす
		p.Status = model.PaymentStatusProcessing
		if err := r.Payments().Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		txnID, chargeErr := u.attempt(ctx, p, details, 0)

		if chargeErr != nil {
			//リトライ上限。FAILEDで確定する。
			//エラーで戻るとFAILEDの書き込みごとロールバックされるので、
			//ここではnilを返してcommitし、HTTPエラーはtxの外で返す
			exhausted = true
			p.Status = model.PaymentStatusFailed
			if err := r.Payments().Update(ctx, p); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
			if err := r.Orders().UpdatePaymentStatus(ctx, p.OrderID, model.OrderPaymentFailed); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}

			u.logger.Warn("payment failed after retries",
				zap.Int64("payment_id", p.ID),
				zap.Int64("order_id", p.OrderID),
				zap.Int("max_retries", u.maxRetries),
				zap.Error(chargeErr),
			)

			out = toPaymentOutput(p)
			return nil
		}

		now := time.Now()
		p.Status = model.PaymentStatusCompleted
		p.TransactionID = &txnID
		p.PaidAt = &now
		if err := r.Payments().Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if err := r.Orders().UpdatePaymentStatus(ctx, p.OrderID, model.OrderPaymentCompleted); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		if err := r.Orders().UpdateStatus(ctx, p.OrderID, model.OrderStatusProcessing); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//配送準備へ
		if s, err := r.Shippings().FindByOrderID(ctx, p.OrderID); err == nil {
			if err := r.Shippings().UpdateStatus(ctx, s.ID, model.ShippingStatusPreparing); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		u.logger.Info("payment completed",
			zap.Int64("payment_id", p.ID),
			zap.Int64("order_id", p.OrderID),
			zap.String("transaction_id", txnID),
		)

		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return out, err
	}
	if exhausted {
		return out, NewHTTPError(http.StatusBadGateway, CodePaymentFailed, "payment processing failed")
	}
	return out, nil
}

// 1回分の課金試行。失敗したら回数を増やして自分を呼び直す
func (u *PaymentUsecase) attempt(ctx context.Context, p model.Payment, details PaymentDetails, retryCount int) (string, error) {
	txnID, err := u.gateway.Charge(ctx, p, details)
	if err == nil {
		return txnID, nil
	}

	u.logger.Warn("payment attempt failed",
		zap.Int64("payment_id", p.ID),
		zap.Int("retry_count", retryCount),
		zap.Error(err),
	)

	//初回+maxRetries回の再試行で打ち止め
	if retryCount >= u.maxRetries {
		return "", err
	}
	return u.attempt(ctx, p, details, retryCount+1)
}

// ProcessRefund はCOMPLETEDのPaymentだけ返金できる。
func (u *PaymentUsecase) ProcessRefund(ctx context.Context, userID int64, paymentID int64, reason string) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := u.findOwnedPayment(ctx, r, userID, paymentID)
		if err != nil {
			return err
		}

		if p.Status != model.PaymentStatusCompleted {
			return NewHTTPError(http.StatusBadRequest, CodePaymentNotRefundable, "payment is not refundable")
		}

		now := time.Now()
		p.Status = model.PaymentStatusRefunded
		p.RefundedAt = &now
		if err := r.Payments().Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if err := r.Orders().UpdatePaymentStatus(ctx, p.OrderID, model.OrderPaymentRefunded); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		if err := r.Orders().UpdateStatus(ctx, p.OrderID, model.OrderStatusRefunded); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		u.logger.Info("payment refunded",
			zap.Int64("payment_id", p.ID),
			zap.Int64("order_id", p.OrderID),
			zap.String("reason", reason),
		)

		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

func (u *PaymentUsecase) GetPayment(ctx context.Context, userID int64, paymentID int64) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := u.findOwnedPayment(ctx, r, userID, paymentID)
		if err != nil {
			return err
		}
		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// Paymentを取得し、紐づく注文の持ち主を確認する。
// 他人のPaymentは「存在しない扱い」
func (u *PaymentUsecase) findOwnedPayment(ctx context.Context, r repo.TxRepos, userID int64, paymentID int64) (model.Payment, error) {
	p, err := r.Payments().FindByID(ctx, paymentID)
	if err == repo.ErrNotFound {
		return model.Payment{}, NewHTTPError(http.StatusNotFound, CodePaymentNotFound, "payment not found")
	}
	if err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
	}

	o, err := r.Orders().FindByID(ctx, p.OrderID)
	if err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
	}
	if o.UserID != userID {
		return model.Payment{}, NewHTTPError(http.StatusNotFound, CodePaymentNotFound, "payment not found")
	}
	return p, nil
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:            p.ID,
		OrderID:       p.OrderID,
		PaymentMethod: p.PaymentMethod,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		PaidAt:        p.PaidAt,
		RefundedAt:    p.RefundedAt,
	}
}
