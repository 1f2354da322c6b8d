package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/cache"
	"github.com/Cheertaboi/storefront-service/internal/concurrency"
	"github.com/Cheertaboi/storefront-service/internal/models"
	"github.com/Cheertaboi/storefront-service/internal/pricing"
)

const (
	couponCacheTTL    = 30 * time.Second
	applicableWorkers = 4
)

type CouponService struct {
	tx      TxRunner
	coupons CouponRepo
	usage   UsageRepo
	cache   *cache.Cache[*models.Coupon]
	log     *zap.Logger
	now     func() time.Time
}

func NewCouponService(tx TxRunner, coupons CouponRepo, usage UsageRepo, log *zap.Logger) *CouponService {
	return &CouponService{
		tx:      tx,
		coupons: coupons,
		usage:   usage,
		cache:   cache.New[*models.Coupon](couponCacheTTL),
		log:     log,
		now:     time.Now,
	}
}

// lookup reads a coupon by its exact code, going through the cache.
func (s *CouponService) lookup(ctx context.Context, code string) (*models.Coupon, error) {
	if c, ok := s.cache.Get(code); ok {
		return c, nil
	}
	c, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Backend("could not load coupon", err)
	}
	if c != nil {
		s.cache.Set(code, c)
	}
	return c, nil
}

// Verify checks whether code can be applied to a cart of the given total
// for the user. It has no side effects. A coupon that does not apply is a
// result with Valid false, not an error.
func (s *CouponService) Verify(ctx context.Context, req models.VerifyRequest) (models.VerifyResult, error) {
	if req.UserID <= 0 {
		return models.VerifyResult{}, apperr.AuthRequired("login required to use coupons")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return models.VerifyResult{}, apperr.Validation("invalid_coupon_code", "coupon code is required")
	}
	if req.CartTotal.IsNegative() {
		return models.VerifyResult{}, apperr.Validation("invalid_cart_total", "cart total cannot be negative")
	}

	c, err := s.lookup(ctx, code)
	if err != nil {
		return models.VerifyResult{}, err
	}
	if c == nil {
		return models.Invalid(models.ReasonNotFound, "coupon not found", req.CartTotal), nil
	}
	return s.evaluate(ctx, c, req.UserID, req.CartTotal, s.now())
}

// usable checks the coupon's own state at now: active flag, validity window
// and global cap, in that order. It returns an empty reason when all pass.
func usable(c *models.Coupon, now time.Time) (reason, msg string) {
	switch {
	case !c.Active:
		return models.ReasonInactive, "coupon is not active"
	case now.Before(c.StartsAt):
		return models.ReasonNotStarted, "coupon is not valid yet"
	case !now.Before(c.EndsAt):
		return models.ReasonExpired, "coupon has expired"
	case c.Exhausted():
		return models.ReasonExhausted, "coupon usage limit reached"
	}
	return "", ""
}

// evaluate runs the checks in a fixed order and stops at the first failure.
// The minimum order amount is checked after the window and before the cap.
func (s *CouponService) evaluate(ctx context.Context, c *models.Coupon, userID int64, total decimal.Decimal, now time.Time) (models.VerifyResult, error) {
	reason, msg := usable(c, now)
	if reason != "" && reason != models.ReasonExhausted {
		return models.Invalid(reason, msg, total), nil
	}
	if total.LessThan(c.MinOrderAmount) {
		return models.Invalid(models.ReasonMinOrderNotMet,
			fmt.Sprintf("minimum order amount is %s", c.MinOrderAmount.StringFixed(2)), total), nil
	}
	if reason != "" {
		return models.Invalid(reason, msg, total), nil
	}

	if c.SingleUsePerUser {
		used, err := s.usage.HasRedeemed(ctx, c.ID, userID)
		if err != nil {
			return models.VerifyResult{}, apperr.Backend("could not check coupon usage", err)
		}
		if used {
			return models.Invalid(models.ReasonAlreadyUsed, "coupon already used", total), nil
		}
	}

	discount, discounted := pricing.ComputeDiscount(c, total)
	return models.VerifyResult{
		Valid:           true,
		Reason:          models.ReasonApplied,
		Message:         "coupon applied",
		Discount:        &discount,
		OriginalTotal:   total,
		DiscountedTotal: &discounted,
		Coupon:          c,
	}, nil
}

// Redeem consumes one use of the coupon for the user's order. It is only
// called from checkout, inside the checkout transaction. The coupon row is
// locked while the active flag, validity window, usage cap and single-use
// rule are re-checked, so two concurrent redemptions cannot both take the
// last use. An order is redeemed against at most once.
func (s *CouponService) Redeem(ctx context.Context, couponID, userID, orderID int64) error {
	if userID <= 0 {
		return apperr.AuthRequired("login required to use coupons")
	}
	if orderID <= 0 {
		return apperr.Validation("invalid_order_id", "a coupon is redeemed against an order")
	}

	var code string
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.coupons.LockByID(ctx, couponID)
		if err != nil {
			return apperr.Backend("could not load coupon", err)
		}
		if c == nil {
			return apperr.NotFound(models.ReasonNotFound, "coupon not found")
		}
		code = c.Code
		if reason, msg := usable(c, s.now()); reason != "" {
			return apperr.State(reason, msg)
		}
		if c.SingleUsePerUser {
			used, err := s.usage.HasRedeemed(ctx, c.ID, userID)
			if err != nil {
				return apperr.Backend("could not check coupon usage", err)
			}
			if used {
				return apperr.State(models.ReasonAlreadyUsed, "coupon already used")
			}
		}
		if err := s.coupons.IncrementRedemptions(ctx, c.ID); err != nil {
			return apperr.Backend("could not redeem coupon", err)
		}
		if err := s.usage.Record(ctx, c.ID, userID, orderID); err != nil {
			if apperr.KindOf(err) == apperr.KindConflict {
				return err
			}
			return apperr.Backend("could not redeem coupon", err)
		}
		return nil
	})
	if code != "" {
		s.cache.Delete(code)
	}
	if err != nil {
		return err
	}

	s.log.Info("coupon redeemed",
		zap.Int64("coupon_id", couponID),
		zap.Int64("user_id", userID),
		zap.Int64("order_id", orderID),
	)
	return nil
}

// ApplicableCoupons evaluates every currently active coupon against the cart
// total and returns the ones that apply, largest discount first.
func (s *CouponService) ApplicableCoupons(ctx context.Context, userID int64, total decimal.Decimal) ([]models.VerifyResult, error) {
	if userID <= 0 {
		return nil, apperr.AuthRequired("login required to use coupons")
	}
	now := s.now()
	active, err := s.coupons.ListActive(ctx, now)
	if err != nil {
		return nil, apperr.Backend("could not list coupons", err)
	}

	results := make([]models.VerifyResult, len(active))
	err = concurrency.Run(ctx, applicableWorkers, len(active), func(ctx context.Context, i int) error {
		res, err := s.evaluate(ctx, &active[i], userID, total, now)
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	applicable := []models.VerifyResult{}
	for _, r := range results {
		if r.Valid {
			applicable = append(applicable, r)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Discount.GreaterThan(*applicable[j].Discount)
	})
	return applicable, nil
}

func (s *CouponService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, apperr.Backend("could not list coupons", err)
	}
	return coupons, nil
}

func validateCoupon(in *models.CouponInput) error {
	if field, msg := in.Validate(); field != "" {
		return apperr.Validation("invalid_"+field, msg)
	}
	return nil
}

func (s *CouponService) CreateCoupon(ctx context.Context, in models.CouponInput) (*models.Coupon, error) {
	if err := validateCoupon(&in); err != nil {
		return nil, err
	}
	c, err := s.coupons.Create(ctx, in.ToCoupon())
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, err
		}
		return nil, apperr.Backend("could not create coupon", err)
	}
	s.cache.Delete(c.Code)
	s.log.Info("coupon created", zap.Int64("coupon_id", c.ID), zap.String("code", c.Code))
	return c, nil
}

func (s *CouponService) UpdateCoupon(ctx context.Context, id int64, in models.CouponInput) (*models.Coupon, error) {
	if err := validateCoupon(&in); err != nil {
		return nil, err
	}
	prev, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Backend("could not load coupon", err)
	}
	if prev == nil {
		return nil, apperr.NotFound(models.ReasonNotFound, "coupon not found")
	}

	c, err := s.coupons.Update(ctx, id, in.ToCoupon())
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, err
		}
		return nil, apperr.Backend("could not update coupon", err)
	}
	if c == nil {
		return nil, apperr.NotFound(models.ReasonNotFound, "coupon not found")
	}
	s.cache.Delete(prev.Code)
	s.cache.Delete(c.Code)
	return c, nil
}

func (s *CouponService) DeleteCoupon(ctx context.Context, id int64) error {
	prev, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return apperr.Backend("could not load coupon", err)
	}
	if prev == nil {
		return apperr.NotFound(models.ReasonNotFound, "coupon not found")
	}
	if _, err := s.coupons.Delete(ctx, id); err != nil {
		return apperr.Backend("could not delete coupon", err)
	}
	s.cache.Delete(prev.Code)
	s.log.Info("coupon deleted", zap.Int64("coupon_id", id), zap.String("code", prev.Code))
	return nil
}
