package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/mocks"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

type couponFixture struct {
	svc     *CouponService
	coupons *mocks.MockCouponRepo
	usage   *mocks.MockUsageRepo
}

func newCouponFixture(t *testing.T) couponFixture {
	ctrl := gomock.NewController(t)
	f := couponFixture{
		coupons: mocks.NewMockCouponRepo(ctrl),
		usage:   mocks.NewMockUsageRepo(ctrl),
	}
	f.svc = NewCouponService(passthroughTx(ctrl), f.coupons, f.usage, zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestCouponService_Verify(t *testing.T) {
	tests := []struct {
		name      string
		coupon    func() *models.Coupon
		total     string
		usedSetup func(m *mocks.MockUsageRepo)
		reason    string
		discount  string
		final     string
	}{
		{
			name:   "unknown code",
			coupon: func() *models.Coupon { return nil },
			total:  "100",
			reason: models.ReasonNotFound,
		},
		{
			name: "inactive is reported before expiry",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "OLD", models.DiscountFixed, "5")
				c.Active = false
				c.EndsAt = fixedNow.Add(-time.Hour)
				return c
			},
			total:  "100",
			reason: models.ReasonInactive,
		},
		{
			name: "not started",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "SOON", models.DiscountFixed, "5")
				c.StartsAt = fixedNow.Add(time.Minute)
				return c
			},
			total:  "100",
			reason: models.ReasonNotStarted,
		},
		{
			name: "end of window is exclusive",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "EDGE", models.DiscountFixed, "5")
				c.EndsAt = fixedNow
				return c
			},
			total:  "100",
			reason: models.ReasonExpired,
		},
		{
			name: "start of window is inclusive",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "EDGE", models.DiscountFixed, "5")
				c.StartsAt = fixedNow
				return c
			},
			total:    "100",
			reason:   models.ReasonApplied,
			discount: "5",
			final:    "95",
		},
		{
			name: "minimum order is checked before the usage cap",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "BIG", models.DiscountFixed, "5")
				c.MinOrderAmount = dec("50")
				c.MaxRedemptions = intp(1)
				c.RedemptionCount = 1
				return c
			},
			total:  "49.99",
			reason: models.ReasonMinOrderNotMet,
		},
		{
			name: "usage cap reached",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "CAP", models.DiscountFixed, "5")
				c.MaxRedemptions = intp(3)
				c.RedemptionCount = 3
				return c
			},
			total:  "100",
			reason: models.ReasonExhausted,
		},
		{
			name: "single use already redeemed",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "ONCE", models.DiscountPercentage, "10")
				c.SingleUsePerUser = true
				return c
			},
			total: "100",
			usedSetup: func(m *mocks.MockUsageRepo) {
				m.EXPECT().HasRedeemed(gomock.Any(), int64(1), int64(42)).Return(true, nil)
			},
			reason: models.ReasonAlreadyUsed,
		},
		{
			name: "percentage discount",
			coupon: func() *models.Coupon {
				c := activeCoupon(1, "TEN", models.DiscountPercentage, "10")
				c.SingleUsePerUser = true
				return c
			},
			total: "59.99",
			usedSetup: func(m *mocks.MockUsageRepo) {
				m.EXPECT().HasRedeemed(gomock.Any(), int64(1), int64(42)).Return(false, nil)
			},
			reason:   models.ReasonApplied,
			discount: "6",
			final:    "53.99",
		},
		{
			name: "fixed discount never exceeds the total",
			coupon: func() *models.Coupon {
				return activeCoupon(1, "FIFTY", models.DiscountFixed, "50")
			},
			total:    "30",
			reason:   models.ReasonApplied,
			discount: "30",
			final:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCouponFixture(t)
			c := tt.coupon()
			f.coupons.EXPECT().GetByCode(gomock.Any(), "CODE").Return(c, nil)
			if tt.usedSetup != nil {
				tt.usedSetup(f.usage)
			}

			res, err := f.svc.Verify(context.Background(), models.VerifyRequest{
				UserID:    42,
				Code:      " CODE ",
				CartTotal: dec(tt.total),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.reason, res.Reason)
			assert.True(t, res.OriginalTotal.Equal(dec(tt.total)))
			if tt.discount == "" {
				assert.False(t, res.Valid)
				assert.Nil(t, res.Discount)
				return
			}
			assert.True(t, res.Valid)
			require.NotNil(t, res.Discount)
			assert.Equal(t, dec(tt.discount).StringFixed(2), res.Discount.StringFixed(2))
			assert.Equal(t, dec(tt.final).StringFixed(2), res.DiscountedTotal.StringFixed(2))
		})
	}
}

func TestCouponService_VerifyRejectsBadInput(t *testing.T) {
	f := newCouponFixture(t)
	ctx := context.Background()

	_, err := f.svc.Verify(ctx, models.VerifyRequest{Code: "X", CartTotal: dec("10")})
	requireKind(t, err, apperr.KindAuthRequired, "")

	_, err = f.svc.Verify(ctx, models.VerifyRequest{UserID: 1, Code: "  ", CartTotal: dec("10")})
	requireKind(t, err, apperr.KindValidation, "invalid_coupon_code")

	_, err = f.svc.Verify(ctx, models.VerifyRequest{UserID: 1, Code: "X", CartTotal: dec("-1")})
	requireKind(t, err, apperr.KindValidation, "invalid_cart_total")
}

func TestCouponService_VerifyBackendError(t *testing.T) {
	f := newCouponFixture(t)
	f.coupons.EXPECT().GetByCode(gomock.Any(), "X").Return(nil, errors.New("db down"))

	_, err := f.svc.Verify(context.Background(), models.VerifyRequest{UserID: 1, Code: "X", CartTotal: dec("10")})
	requireKind(t, err, apperr.KindBackend, "")
}

func TestCouponService_VerifyCachesLookups(t *testing.T) {
	f := newCouponFixture(t)
	c := activeCoupon(1, "SAVE5", models.DiscountFixed, "5")
	f.coupons.EXPECT().GetByCode(gomock.Any(), "SAVE5").Return(c, nil).Times(1)

	for i := 0; i < 3; i++ {
		res, err := f.svc.Verify(context.Background(), models.VerifyRequest{UserID: 1, Code: "SAVE5", CartTotal: dec("20")})
		require.NoError(t, err)
		assert.True(t, res.Valid)
	}
}

func TestCouponService_Redeem(t *testing.T) {
	const orderID = int64(9)

	t.Run("consumes one use", func(t *testing.T) {
		f := newCouponFixture(t)
		c := activeCoupon(1, "ONCE", models.DiscountFixed, "5")
		c.SingleUsePerUser = true
		c.MaxRedemptions = intp(10)

		gomock.InOrder(
			f.coupons.EXPECT().LockByID(gomock.Any(), int64(1)).Return(c, nil),
			f.usage.EXPECT().HasRedeemed(gomock.Any(), int64(1), int64(42)).Return(false, nil),
			f.coupons.EXPECT().IncrementRedemptions(gomock.Any(), int64(1)).Return(nil),
			f.usage.EXPECT().Record(gomock.Any(), int64(1), int64(42), orderID).Return(nil),
		)
		require.NoError(t, f.svc.Redeem(context.Background(), 1, 42, orderID))
	})

	t.Run("requires an order", func(t *testing.T) {
		f := newCouponFixture(t)
		err := f.svc.Redeem(context.Background(), 1, 42, 0)
		requireKind(t, err, apperr.KindValidation, "invalid_order_id")
	})

	// No IncrementRedemptions or Record expectations: an unusable coupon
	// must not consume a use.
	unusable := []struct {
		name   string
		mutate func(c *models.Coupon)
		reason string
	}{
		{
			name: "inactive and expired",
			mutate: func(c *models.Coupon) {
				c.Active = false
				c.EndsAt = fixedNow.Add(-time.Hour)
			},
			reason: models.ReasonInactive,
		},
		{
			name:   "expired",
			mutate: func(c *models.Coupon) { c.EndsAt = fixedNow.Add(-time.Hour) },
			reason: models.ReasonExpired,
		},
		{
			name:   "not started",
			mutate: func(c *models.Coupon) { c.StartsAt = fixedNow.Add(time.Hour) },
			reason: models.ReasonNotStarted,
		},
		{
			name: "last use taken concurrently",
			mutate: func(c *models.Coupon) {
				c.MaxRedemptions = intp(1)
				c.RedemptionCount = 1
			},
			reason: models.ReasonExhausted,
		},
	}
	for _, tt := range unusable {
		t.Run(tt.name, func(t *testing.T) {
			f := newCouponFixture(t)
			c := activeCoupon(1, "OLD", models.DiscountFixed, "5")
			tt.mutate(c)
			f.coupons.EXPECT().LockByID(gomock.Any(), int64(1)).Return(c, nil).Times(2)

			for i := 0; i < 2; i++ {
				err := f.svc.Redeem(context.Background(), 1, 42, orderID)
				requireKind(t, err, apperr.KindState, tt.reason)
			}
		})
	}

	t.Run("single use already redeemed", func(t *testing.T) {
		f := newCouponFixture(t)
		c := activeCoupon(1, "ONCE", models.DiscountFixed, "5")
		c.SingleUsePerUser = true
		f.coupons.EXPECT().LockByID(gomock.Any(), int64(1)).Return(c, nil)
		f.usage.EXPECT().HasRedeemed(gomock.Any(), int64(1), int64(42)).Return(true, nil)

		err := f.svc.Redeem(context.Background(), 1, 42, orderID)
		requireKind(t, err, apperr.KindState, models.ReasonAlreadyUsed)
	})

	t.Run("order already redeemed", func(t *testing.T) {
		f := newCouponFixture(t)
		c := activeCoupon(1, "MULTI", models.DiscountFixed, "5")
		f.coupons.EXPECT().LockByID(gomock.Any(), int64(1)).Return(c, nil)
		f.coupons.EXPECT().IncrementRedemptions(gomock.Any(), int64(1)).Return(nil)
		f.usage.EXPECT().Record(gomock.Any(), int64(1), int64(42), orderID).
			Return(apperr.Conflict("order_already_redeemed", "a coupon was already redeemed for this order"))

		err := f.svc.Redeem(context.Background(), 1, 42, orderID)
		requireKind(t, err, apperr.KindConflict, "order_already_redeemed")
	})

	t.Run("unknown coupon", func(t *testing.T) {
		f := newCouponFixture(t)
		f.coupons.EXPECT().LockByID(gomock.Any(), int64(5)).Return(nil, nil)

		err := f.svc.Redeem(context.Background(), 5, 42, orderID)
		requireKind(t, err, apperr.KindNotFound, "")
	})

	t.Run("invalidates the cached coupon", func(t *testing.T) {
		f := newCouponFixture(t)
		c := activeCoupon(1, "SAVE", models.DiscountFixed, "5")
		f.coupons.EXPECT().GetByCode(gomock.Any(), "SAVE").Return(c, nil).Times(2)
		f.coupons.EXPECT().LockByID(gomock.Any(), int64(1)).Return(c, nil)
		f.coupons.EXPECT().IncrementRedemptions(gomock.Any(), int64(1)).Return(nil)
		f.usage.EXPECT().Record(gomock.Any(), int64(1), int64(42), orderID).Return(nil)

		req := models.VerifyRequest{UserID: 42, Code: "SAVE", CartTotal: dec("10")}
		_, err := f.svc.Verify(context.Background(), req)
		require.NoError(t, err)
		require.NoError(t, f.svc.Redeem(context.Background(), 1, 42, orderID))
		_, err = f.svc.Verify(context.Background(), req)
		require.NoError(t, err)
	})
}

func TestCouponService_ApplicableCoupons(t *testing.T) {
	f := newCouponFixture(t)

	small := activeCoupon(1, "FIVE", models.DiscountFixed, "5")
	large := activeCoupon(2, "TWENTY", models.DiscountPercentage, "20")
	tooBig := activeCoupon(3, "BIGSPEND", models.DiscountFixed, "50")
	tooBig.MinOrderAmount = dec("500")
	once := activeCoupon(4, "WELCOME", models.DiscountFixed, "15")
	once.SingleUsePerUser = true

	f.coupons.EXPECT().ListActive(gomock.Any(), fixedNow).
		Return([]models.Coupon{*small, *large, *tooBig, *once}, nil)
	f.usage.EXPECT().HasRedeemed(gomock.Any(), int64(4), int64(42)).Return(true, nil)

	got, err := f.svc.ApplicableCoupons(context.Background(), 42, dec("100"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TWENTY", got[0].Coupon.Code)
	assert.Equal(t, "FIVE", got[1].Coupon.Code)
	assert.True(t, got[0].Discount.Equal(dec("20")))
}

func TestCouponService_ApplicableCouponsEmpty(t *testing.T) {
	f := newCouponFixture(t)
	f.coupons.EXPECT().ListActive(gomock.Any(), fixedNow).Return(nil, nil)

	got, err := f.svc.ApplicableCoupons(context.Background(), 42, dec("100"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCouponService_CreateCoupon(t *testing.T) {
	input := models.CouponInput{
		Code:     "Spring10",
		Kind:     models.DiscountPercentage,
		Value:    dec("10"),
		StartsAt: fixedNow,
		EndsAt:   fixedNow.Add(48 * time.Hour),
		Active:   true,
	}

	t.Run("rejects an empty window", func(t *testing.T) {
		f := newCouponFixture(t)
		in := input
		in.EndsAt = in.StartsAt
		_, err := f.svc.CreateCoupon(context.Background(), in)
		requireKind(t, err, apperr.KindValidation, "invalid_ends_at")
	})

	t.Run("rejects percentage over 100", func(t *testing.T) {
		f := newCouponFixture(t)
		in := input
		in.Value = dec("100.01")
		_, err := f.svc.CreateCoupon(context.Background(), in)
		requireKind(t, err, apperr.KindValidation, "invalid_discount_value")
	})

	t.Run("duplicate code", func(t *testing.T) {
		f := newCouponFixture(t)
		f.coupons.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, apperr.Conflict("coupon_code_taken", "a coupon with this code already exists"))
		_, err := f.svc.CreateCoupon(context.Background(), input)
		requireKind(t, err, apperr.KindConflict, "coupon_code_taken")
	})

	t.Run("keeps the code case", func(t *testing.T) {
		f := newCouponFixture(t)
		f.coupons.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *models.Coupon) (*models.Coupon, error) {
				c.ID = 3
				return c, nil
			})
		c, err := f.svc.CreateCoupon(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "Spring10", c.Code)
		assert.True(t, c.MinOrderAmount.Equal(decimal.Zero))
	})
}

func TestCouponService_DeleteCoupon(t *testing.T) {
	f := newCouponFixture(t)
	f.coupons.EXPECT().GetByID(gomock.Any(), int64(8)).Return(nil, nil)

	err := f.svc.DeleteCoupon(context.Background(), 8)
	requireKind(t, err, apperr.KindNotFound, "")
}
