package models

import "github.com/shopspring/decimal"

// ProductPricing is the subset of a product needed to price a cart line.
type ProductPricing struct {
	ID            int64
	Name          string
	Image         string
	BasePrice     decimal.Decimal
	PromoPrice    decimal.NullDecimal
	PromoActive   bool
	StockQuantity int
}

// BundleComponent is one product inside a bundle.
type BundleComponent struct {
	Product  ProductPricing
	Quantity int
}

type Bundle struct {
	ID         int64
	Name       string
	Components []BundleComponent
}

type ProductSummary struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	PromoPrice    decimal.NullDecimal `json:"promo_price"`
	Description   string              `json:"description,omitempty"`
	ImageURL      string              `json:"image_url"`
	StockQuantity int                 `json:"stock_quantity,omitempty"`
	Brand         string              `json:"brand,omitempty"`
	Category      string              `json:"category,omitempty"`
}

type WishlistRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}
