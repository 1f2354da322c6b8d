// Package pricing holds the money rules of the storefront: effective prices,
// cart totals, bundle prices and coupon discounts. All amounts are
// decimal.Decimal and rounded half-up to cents at the boundaries.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// DefaultBundleDiscountPercent is the markdown applied to a bundle over the
// sum of its components.
const DefaultBundleDiscountPercent = 15

// Round2 rounds half away from zero to two decimals.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// EffectivePrice returns the promotional price when a promotion is active
// and a promotional price is set, otherwise the base price.
func EffectivePrice(p models.ProductPricing) decimal.Decimal {
	if p.PromoActive && p.PromoPrice.Valid {
		return p.PromoPrice.Decimal
	}
	return p.BasePrice
}

// BundlePrice sums the components' effective prices and applies the bundle
// markdown.
func BundlePrice(b models.Bundle, discountPercent int) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range b.Components {
		qty := c.Quantity
		if qty <= 0 {
			qty = 1
		}
		sum = sum.Add(EffectivePrice(c.Product).Mul(decimal.NewFromInt(int64(qty))))
	}
	sum = Round2(sum)
	factor := hundred.Sub(decimal.NewFromInt(int64(discountPercent))).Div(hundred)
	return Round2(sum.Mul(factor))
}

// CartTotal is Σ quantity × unit price over the lines.
func CartTotal(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return Round2(total)
}

// ComputeDiscount returns the discount a coupon grants on total and the
// resulting discounted total. The discounted total is never negative.
func ComputeDiscount(c *models.Coupon, total decimal.Decimal) (discount, discounted decimal.Decimal) {
	if total.IsNegative() {
		total = decimal.Zero
	}
	switch c.Kind {
	case models.DiscountPercentage:
		discount = Round2(total.Mul(c.Value).Div(hundred))
	default:
		discount = decimal.Min(c.Value, total)
	}
	if discount.GreaterThan(total) {
		discount = total
	}
	discounted = Round2(total.Sub(discount))
	return Round2(discount), discounted
}

// Totals prices lines with an optional coupon. With no coupon the discount
// is zero and final equals original.
func Totals(lines []models.CartLine, c *models.Coupon) (original, discount, final decimal.Decimal) {
	original = CartTotal(lines)
	if c == nil {
		return original, decimal.Zero, original
	}
	discount, final = ComputeDiscount(c, original)
	return original, discount, final
}
