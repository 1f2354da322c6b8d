package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

func (k DiscountKind) Valid() bool {
	return k == DiscountPercentage || k == DiscountFixed
}

type Coupon struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Description      string          `json:"description"`
	Kind             DiscountKind    `json:"discount_kind"`
	Value            decimal.Decimal `json:"discount_value"`
	MinOrderAmount   decimal.Decimal `json:"min_order_amount"`
	StartsAt         time.Time       `json:"starts_at"`
	EndsAt           time.Time       `json:"ends_at"`
	MaxRedemptions   *int            `json:"max_redemptions,omitempty"`
	RedemptionCount  int             `json:"redemption_count"`
	SingleUsePerUser bool            `json:"single_use_per_user"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Exhausted reports whether the global redemption cap has been reached.
func (c *Coupon) Exhausted() bool {
	return c.MaxRedemptions != nil && c.RedemptionCount >= *c.MaxRedemptions
}

// CouponInput is the admin create/update payload.
type CouponInput struct {
	Code             string          `json:"code" validate:"required,max=64"`
	Description      string          `json:"description" validate:"max=255"`
	Kind             DiscountKind    `json:"discount_kind" validate:"required,oneof=percentage fixed"`
	Value            decimal.Decimal `json:"discount_value"`
	MinOrderAmount   decimal.Decimal `json:"min_order_amount"`
	StartsAt         time.Time       `json:"starts_at" validate:"required"`
	EndsAt           time.Time       `json:"ends_at" validate:"required"`
	MaxRedemptions   *int            `json:"max_redemptions,omitempty" validate:"omitempty,min=1"`
	SingleUsePerUser bool            `json:"single_use_per_user"`
	Active           bool            `json:"active"`
}

var hundred = decimal.NewFromInt(100)

// Validate enforces the coupon invariants. It returns the name of the
// offending field and a message, or empty strings when the input is valid.
func (in *CouponInput) Validate() (field, msg string) {
	switch {
	case strings.TrimSpace(in.Code) == "":
		return "code", "code is required"
	case !in.Kind.Valid():
		return "discount_kind", "discount kind must be percentage or fixed"
	case !in.Value.IsPositive():
		return "discount_value", "discount value must be greater than zero"
	case in.Kind == DiscountPercentage && in.Value.GreaterThan(hundred):
		return "discount_value", "percentage must be at most 100"
	case in.MinOrderAmount.IsNegative():
		return "min_order_amount", "minimum order amount cannot be negative"
	case !in.EndsAt.After(in.StartsAt):
		return "ends_at", "end must be strictly after start"
	case in.MaxRedemptions != nil && *in.MaxRedemptions < 1:
		return "max_redemptions", "max redemptions must be at least 1"
	}
	return "", ""
}

// ToCoupon builds a coupon from the input. Code is kept exactly as given:
// codes are case-sensitive.
func (in *CouponInput) ToCoupon() *Coupon {
	return &Coupon{
		Code:             strings.TrimSpace(in.Code),
		Description:      in.Description,
		Kind:             in.Kind,
		Value:            in.Value,
		MinOrderAmount:   in.MinOrderAmount,
		StartsAt:         in.StartsAt.UTC(),
		EndsAt:           in.EndsAt.UTC(),
		MaxRedemptions:   in.MaxRedemptions,
		SingleUsePerUser: in.SingleUsePerUser,
		Active:           in.Active,
	}
}

// AppliedCoupon is the coupon reference attached to an order.
type AppliedCoupon struct {
	ID    int64           `json:"id"`
	Code  string          `json:"code"`
	Kind  DiscountKind    `json:"discount_kind"`
	Value decimal.Decimal `json:"discount_value"`
}

func (c *Coupon) Applied() *AppliedCoupon {
	return &AppliedCoupon{ID: c.ID, Code: c.Code, Kind: c.Kind, Value: c.Value}
}
