// Package payment captures order payments through an external gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
)

// ErrDeclined is returned when the gateway refuses a payment.
var ErrDeclined = errors.New("payment declined")

// Request asks the gateway to capture Amount (in minor units) for an order.
type Request struct {
	OrderID  string
	Amount   int64
	Currency string
}

// Receipt is the gateway's record of a capture.
type Receipt struct {
	PaymentID string    `json:"payment_id"`
	OrderRef  string    `json:"order_id"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paid_at"`
}

// Result reports the outcome of Initiate.
type Result struct {
	Success   bool
	OrderID   string
	PaymentID string
	Receipt   *Receipt
}

// Gateway initiates payments.
type Gateway interface {
	Initiate(ctx context.Context, req Request) (Result, error)
}

// Module provides the configured gateway to Fx.
var Module = fx.Provide(NewGateway)

// NewGateway selects the gateway driver.
func NewGateway(cfg config.Config, logger *zap.Logger) (Gateway, error) {
	switch cfg.Payment.Driver {
	case "", "mock":
		logger.Info("payments run in demo mode", zap.Duration("delay", cfg.Payment.Delay))
		return &MockGateway{Delay: cfg.Payment.Delay, Now: time.Now}, nil
	case "fail":
		return FailGateway{}, nil
	default:
		return nil, fmt.Errorf("unsupported payment driver: %s", cfg.Payment.Driver)
	}
}

// MockGateway captures every payment after Delay.
type MockGateway struct {
	Delay time.Duration
	Now   func() time.Time
}

func (g *MockGateway) Initiate(ctx context.Context, req Request) (Result, error) {
	if req.Amount < 0 {
		return Result{OrderID: req.OrderID}, fmt.Errorf("%w: negative amount", ErrDeclined)
	}
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{OrderID: req.OrderID}, ctx.Err()
		case <-timer.C:
		}
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	at := now().UTC()
	id := fmt.Sprintf("pay_mock_%d", at.UnixNano())
	return Result{
		Success:   true,
		OrderID:   req.OrderID,
		PaymentID: id,
		Receipt: &Receipt{
			PaymentID: id,
			OrderRef:  fmt.Sprintf("order_mock_%d", at.UnixNano()),
			Status:    "captured",
			Amount:    req.Amount,
			Currency:  req.Currency,
			PaidAt:    at,
		},
	}, nil
}

// FailGateway declines every payment.
type FailGateway struct{}

func (FailGateway) Initiate(_ context.Context, req Request) (Result, error) {
	return Result{OrderID: req.OrderID}, ErrDeclined
}
