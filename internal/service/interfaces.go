package service

import (
	"context"
	"time"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_repositories.go -package=mocks

// TxRunner runs fn in a transaction; repositories called with the context
// passed to fn join it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CouponRepo interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetByID(ctx context.Context, id int64) (*models.Coupon, error)
	LockByID(ctx context.Context, id int64) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Coupon, error)
	Create(ctx context.Context, c *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, id int64, c *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, id int64) (bool, error)
	IncrementRedemptions(ctx context.Context, id int64) error
}

type UsageRepo interface {
	HasRedeemed(ctx context.Context, couponID, userID int64) (bool, error)
	Record(ctx context.Context, couponID, userID, orderID int64) error
}

type CartRepo interface {
	Items(ctx context.Context, userID int64) ([]models.CartLine, error)
	AddLine(ctx context.Context, userID int64, item models.ItemRef, qty int) error
	SetQuantity(ctx context.Context, userID int64, item models.ItemRef, qty int) (bool, error)
	RemoveLine(ctx context.Context, userID int64, item models.ItemRef) (bool, error)
	Clear(ctx context.Context, userID int64) error
}

type CatalogRepo interface {
	Product(ctx context.Context, id int64) (*models.ProductPricing, error)
	Bundle(ctx context.Context, id int64) (*models.Bundle, error)
	LockProducts(ctx context.Context, ids []int64) (map[int64]models.ProductPricing, error)
	DecrementStock(ctx context.Context, productID int64, qty int) error
	Search(ctx context.Context, q string, limit int) ([]models.ProductSummary, error)
	Suggestions(ctx context.Context, q string, limit int) ([]models.ProductSummary, error)
	BestSellers(ctx context.Context, limit int) ([]models.ProductSummary, error)
}

type AddressRepo interface {
	List(ctx context.Context, userID int64) ([]models.Address, error)
	Get(ctx context.Context, userID, id int64) (*models.Address, error)
	FindDuplicate(ctx context.Context, userID int64, street, city, postalCode string, excludeID int64) (*models.Address, error)
	Count(ctx context.Context, userID int64) (int, error)
	ClearDefault(ctx context.Context, userID int64) error
	Create(ctx context.Context, a *models.Address) (*models.Address, error)
	Update(ctx context.Context, a *models.Address) (*models.Address, error)
	Delete(ctx context.Context, userID, id int64) (*models.Address, error)
	MarkDefault(ctx context.Context, userID, id int64) (bool, error)
	PromoteOldest(ctx context.Context, userID int64) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *models.Order, lines []models.OrderLine) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	LockByID(ctx context.Context, id int64) (*models.Order, error)
	Lines(ctx context.Context, orderID int64) ([]models.OrderLine, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
	Tracking(ctx context.Context, orderID int64) (*models.Shipment, error)
	CreateTracking(ctx context.Context, s *models.Shipment) error
	AppendTrackingNote(ctx context.Context, orderID int64, status models.OrderStatus, note string) (bool, error)
}

type WishlistRepo interface {
	List(ctx context.Context, userID int64) ([]models.ProductSummary, error)
	Add(ctx context.Context, userID, productID int64) (bool, error)
	Remove(ctx context.Context, userID, productID int64) (bool, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
