package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

// The handlers depend on these views of the services so they can be tested
// without a database.

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest, guestID string) (*models.LoginResponse, error)
}

type CatalogService interface {
	Search(ctx context.Context, q string, limit int) ([]models.ProductSummary, error)
	Suggestions(ctx context.Context, q string, limit int) ([]models.ProductSummary, error)
	BestSellers(ctx context.Context, limit int) ([]models.ProductSummary, error)
}

type CartService interface {
	UserCart(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID int64, req models.AddToCartRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID int64, req models.UpdateCartRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID int64, item models.ItemRef) (*models.Cart, error)
	GuestCart(ctx context.Context, guestID string) (*models.Cart, error)
	AddGuestItem(ctx context.Context, guestID string, req models.AddToCartRequest) (*models.Cart, error)
	UpdateGuestItem(ctx context.Context, guestID string, req models.UpdateCartRequest) (*models.Cart, error)
	RemoveGuestItem(ctx context.Context, guestID string, item models.ItemRef) (*models.Cart, error)
}

// CouponService has no redeem: coupons are consumed only by checkout.
type CouponService interface {
	Verify(ctx context.Context, req models.VerifyRequest) (models.VerifyResult, error)
	ApplicableCoupons(ctx context.Context, userID int64, total decimal.Decimal) ([]models.VerifyResult, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, in models.CouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id int64, in models.CouponInput) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id int64) error
}

type AddressService interface {
	List(ctx context.Context, userID int64) ([]models.Address, error)
	Create(ctx context.Context, userID int64, in models.AddressInput) (*models.Address, error)
	Update(ctx context.Context, userID, id int64, in models.AddressInput) (*models.Address, error)
	Delete(ctx context.Context, userID, id int64) error
	SetDefault(ctx context.Context, userID, id int64) error
}

type WishlistService interface {
	List(ctx context.Context, userID int64) ([]models.ProductSummary, error)
	Add(ctx context.Context, userID, productID int64) ([]models.ProductSummary, error)
	Remove(ctx context.Context, userID, productID int64) ([]models.ProductSummary, error)
}

type CheckoutService interface {
	Submit(ctx context.Context, userID int64, req models.CheckoutRequest) (*models.OrderConfirmation, error)
}

type OrderService interface {
	List(ctx context.Context, userID int64) ([]models.Order, error)
	Detail(ctx context.Context, userID, orderID int64, admin bool) (*models.OrderDetail, error)
	Tracking(ctx context.Context, userID, orderID int64, admin bool) (*models.Shipment, error)
	UpdateStatus(ctx context.Context, orderID int64, upd models.StatusUpdate) (*models.Shipment, error)
}
