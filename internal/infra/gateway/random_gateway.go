package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"go.uber.org/zap"
)

// ゲートウェイが課金を拒否した
var ErrChargeDeclined = errors.New("charge declined by gateway")

// RandomGateway は外部決済ゲートウェイのモック。
// successRateの確率で成功し、成功時はトランザクションIDを発行する。
type RandomGateway struct {
	successRate float64
	logger      *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomGateway(successRate float64, logger *zap.Logger) *RandomGateway {
	if successRate < 0 || successRate > 1 {
		successRate = 0.8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RandomGateway{
		successRate: successRate,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var _ usecase.PaymentGateway = (*RandomGateway)(nil)

func (g *RandomGateway) Charge(ctx context.Context, p model.Payment, details usecase.PaymentDetails) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	n := g.rng.Intn(1000)
	g.mu.Unlock()

	if roll >= g.successRate {
		g.logger.Debug("mock gateway declined charge",
			zap.Int64("payment_id", p.ID),
			zap.Int64("amount", p.Amount),
		)
		return "", ErrChargeDeclined
	}

	txnID := fmt.Sprintf("txn_%d_%03d", time.Now().UnixMilli(), n)

	g.logger.Debug("mock gateway approved charge",
		zap.Int64("payment_id", p.ID),
		zap.Int64("amount", p.Amount),
		zap.String("transaction_id", txnID),
	)
	return txnID, nil
}
