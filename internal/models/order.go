package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusCreated        OrderStatus = "created"
	StatusShipped        OrderStatus = "shipped"
	StatusInTransit      OrderStatus = "in_transit"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

var statusRank = map[OrderStatus]int{
	StatusCreated:        0,
	StatusShipped:        1,
	StatusInTransit:      2,
	StatusOutForDelivery: 3,
	StatusDelivered:      4,
}

func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// CanTransition allows moving forward along the delivery lifecycle (steps
// may be skipped) and cancelling anything not yet delivered. Delivered and
// cancelled are terminal.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s == StatusDelivered || s == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	next, ok := statusRank[to]
	return ok && next > from
}

type Order struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	DeliveryAddress string            `json:"delivery_address"`
	Payment         PaymentDescriptor `json:"payment"`
	TotalOriginal   decimal.Decimal   `json:"total_original"`
	DiscountApplied decimal.Decimal   `json:"discount_applied"`
	TotalFinal      decimal.Decimal   `json:"total_final"`
	CouponCode      *string           `json:"coupon_code,omitempty"`
	Status          OrderStatus       `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type OrderDetail struct {
	Order Order       `json:"order"`
	Lines []OrderLine `json:"lines"`
}

// Shipment is the tracking record of a shipped order. Notes accumulate one
// timestamped line per status update.
type Shipment struct {
	OrderID      int64       `json:"order_id"`
	Status       OrderStatus `json:"status"`
	Carrier      string      `json:"carrier,omitempty"`
	TrackingCode string      `json:"tracking_code,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	ShipTo       string      `json:"ship_to,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type StatusUpdate struct {
	Status       OrderStatus `json:"status" validate:"required"`
	Carrier      string      `json:"carrier,omitempty"`
	TrackingCode string      `json:"tracking_code,omitempty"`
	Note         string      `json:"note,omitempty"`
}

// CheckoutRequest is the client submission. Either AddressID or Address must
// be given; CouponCode is optional.
type CheckoutRequest struct {
	AddressID  *int64         `json:"address_id,omitempty"`
	Address    *AddressInput  `json:"address,omitempty"`
	Payment    PaymentDetails `json:"payment"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

type OrderConfirmation struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	OrderID         int64           `json:"order_id"`
	TotalOriginal   decimal.Decimal `json:"total_original"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	TotalFinal      decimal.Decimal `json:"total_final"`
	AppliedCoupon   *AppliedCoupon  `json:"applied_coupon,omitempty"`
}
