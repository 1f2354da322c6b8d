package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

// WishlistService keeps the products a user saved for later. Adding and
// removing are idempotent and return the updated list.
type WishlistService struct {
	wishlist WishlistRepo
	catalog  CatalogRepo
	log      *zap.Logger
}

func NewWishlistService(wishlist WishlistRepo, catalog CatalogRepo, log *zap.Logger) *WishlistService {
	return &WishlistService{wishlist: wishlist, catalog: catalog, log: log}
}

func (s *WishlistService) List(ctx context.Context, userID int64) ([]models.ProductSummary, error) {
	if userID <= 0 {
		return nil, apperr.AuthRequired("login required")
	}
	out, err := s.wishlist.List(ctx, userID)
	if err != nil {
		return nil, apperr.Backend("could not load wishlist", err)
	}
	return out, nil
}

func validProductID(id int64) error {
	if id <= 0 {
		return apperr.Validation("invalid_product_id", "product id must be positive")
	}
	return nil
}

func (s *WishlistService) Add(ctx context.Context, userID, productID int64) ([]models.ProductSummary, error) {
	if userID <= 0 {
		return nil, apperr.AuthRequired("login required")
	}
	if err := validProductID(productID); err != nil {
		return nil, err
	}
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, apperr.Backend("could not load product", err)
	}
	if p == nil {
		return nil, apperr.NotFound("product_not_found", "product not found")
	}
	added, err := s.wishlist.Add(ctx, userID, productID)
	if err != nil {
		return nil, apperr.Backend("could not update wishlist", err)
	}
	if added {
		s.log.Debug("wishlist item added", zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	}
	return s.List(ctx, userID)
}

// Remove drops the product; removing a product that is not saved succeeds.
func (s *WishlistService) Remove(ctx context.Context, userID, productID int64) ([]models.ProductSummary, error) {
	if userID <= 0 {
		return nil, apperr.AuthRequired("login required")
	}
	if err := validProductID(productID); err != nil {
		return nil, err
	}
	if _, err := s.wishlist.Remove(ctx, userID, productID); err != nil {
		return nil, apperr.Backend("could not update wishlist", err)
	}
	return s.List(ctx, userID)
}
