package models

import "github.com/shopspring/decimal"

// Reason codes returned by coupon verification.
const (
	ReasonApplied        = "coupon_applied"
	ReasonNotFound       = "coupon_not_found"
	ReasonInactive       = "coupon_inactive"
	ReasonNotStarted     = "coupon_not_started"
	ReasonExpired        = "coupon_expired"
	ReasonMinOrderNotMet = "min_order_value_not_met"
	ReasonExhausted      = "usage_limit_reached"
	ReasonAlreadyUsed    = "coupon_already_used"
)

type VerifyRequest struct {
	UserID    int64           `json:"-"`
	Code      string          `json:"code" validate:"required"`
	CartTotal decimal.Decimal `json:"cart_total"`
}

type VerifyResult struct {
	Valid           bool             `json:"valid"`
	Reason          string           `json:"reason"`
	Message         string           `json:"message"`
	Discount        *decimal.Decimal `json:"discount,omitempty"`
	OriginalTotal   decimal.Decimal  `json:"original_total"`
	DiscountedTotal *decimal.Decimal `json:"discounted_total,omitempty"`
	Coupon          *Coupon          `json:"coupon,omitempty"`
}

func Invalid(reason, msg string, total decimal.Decimal) VerifyResult {
	return VerifyResult{Valid: false, Reason: reason, Message: msg, OriginalTotal: total}
}
