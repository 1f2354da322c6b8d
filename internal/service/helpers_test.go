package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/mocks"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intp(n int) *int { return &n }

// passthroughTx runs the transaction body directly.
func passthroughTx(ctrl *gomock.Controller) *mocks.MockTxRunner {
	tx := mocks.NewMockTxRunner(ctrl)
	tx.EXPECT().InTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
	return tx
}

func product(id int64, name, price string, stock int) *models.ProductPricing {
	return &models.ProductPricing{ID: id, Name: name, BasePrice: dec(price), StockQuantity: stock}
}

func activeCoupon(id int64, code string, kind models.DiscountKind, value string) *models.Coupon {
	return &models.Coupon{
		ID:             id,
		Code:           code,
		Kind:           kind,
		Value:          dec(value),
		MinOrderAmount: decimal.Zero,
		StartsAt:       fixedNow.Add(-24 * time.Hour),
		EndsAt:         fixedNow.Add(24 * time.Hour),
		Active:         true,
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, kind, e.Kind)
	if code != "" {
		assert.Equal(t, code, e.Code)
	}
}
