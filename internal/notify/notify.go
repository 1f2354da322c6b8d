// Package notify sends order notifications to customers.
package notify

//go:generate mockgen -source=notify.go -destination=../mocks/mock_notifier.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderPlaced is the confirmation payload sent after a successful checkout.
type OrderPlaced struct {
	OrderID         int64
	CustomerName    string
	CustomerEmail   string
	DeliveryAddress string
	Lines           []Line
	TotalOriginal   decimal.Decimal
	DiscountApplied decimal.Decimal
	TotalFinal      decimal.Decimal
	CouponCode      string
}

type Line struct {
	Name     string
	Quantity int
	Subtotal decimal.Decimal
}

type Notifier interface {
	OrderPlaced(ctx context.Context, evt OrderPlaced) error
}

// LogNotifier only logs; it is used when no mail provider is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) OrderPlaced(_ context.Context, evt OrderPlaced) error {
	n.log.Info("order placed",
		zap.Int64("order_id", evt.OrderID),
		zap.String("to", evt.CustomerEmail),
		zap.String("total", evt.TotalFinal.StringFixed(2)),
	)
	return nil
}
