package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	ItemProduct ItemKind = "product"
	ItemBundle  ItemKind = "bundle"
)

func (k ItemKind) Valid() bool {
	return k == ItemProduct || k == ItemBundle
}

// ItemRef identifies a sellable item: a product or a bundle.
type ItemRef struct {
	Kind ItemKind `json:"kind" validate:"required,oneof=product bundle"`
	ID   int64    `json:"id" validate:"required,gt=0"`
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

type CartLine struct {
	Item      ItemRef         `json:"item"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	UserID  int64           `json:"user_id,omitempty"`
	GuestID string          `json:"guest_id,omitempty"`
	Lines   []CartLine      `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

type AddToCartRequest struct {
	Item     ItemRef `json:"item" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,min=1"`
}

// UpdateCartRequest sets an absolute quantity; zero removes the line.
type UpdateCartRequest struct {
	Item     ItemRef `json:"item" validate:"required"`
	Quantity int     `json:"quantity" validate:"min=0"`
}
