package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/cart"
	"github.com/Cheertaboi/storefront-service/internal/guestcart"
	"github.com/Cheertaboi/storefront-service/internal/models"
	"github.com/Cheertaboi/storefront-service/internal/pricing"
)

type CartService struct {
	tx             TxRunner
	carts          CartRepo
	catalog        CatalogRepo
	guests         guestcart.Store
	bundleDiscount int
	log            *zap.Logger
}

func NewCartService(tx TxRunner, carts CartRepo, catalog CatalogRepo, guests guestcart.Store, bundleDiscount int, log *zap.Logger) *CartService {
	return &CartService{
		tx:             tx,
		carts:          carts,
		catalog:        catalog,
		guests:         guests,
		bundleDiscount: bundleDiscount,
		log:            log,
	}
}

// pricedItem is a cart line with the catalog data it was priced from.
// Exactly one of product and bundle is set.
type pricedItem struct {
	line    models.CartLine
	product *models.ProductPricing
	bundle  *models.Bundle
}

func validItem(item models.ItemRef) error {
	if !item.Kind.Valid() {
		return apperr.Validation("invalid_item_kind", "item kind must be product or bundle")
	}
	if item.ID <= 0 {
		return apperr.Validation("invalid_item_id", "item id must be positive")
	}
	return nil
}

// priceItem looks the item up and fills in its current unit price.
func (s *CartService) priceItem(ctx context.Context, item models.ItemRef, qty int) (pricedItem, error) {
	line := models.CartLine{Item: item, Quantity: qty}
	switch item.Kind {
	case models.ItemProduct:
		p, err := s.catalog.Product(ctx, item.ID)
		if err != nil {
			return pricedItem{}, apperr.Backend("could not load product", err)
		}
		if p == nil {
			return pricedItem{}, apperr.NotFound("product_not_found", "product not found")
		}
		line.Name = p.Name
		line.ImageURL = p.Image
		line.UnitPrice = pricing.EffectivePrice(*p)
		return pricedItem{line: line, product: p}, nil
	case models.ItemBundle:
		b, err := s.catalog.Bundle(ctx, item.ID)
		if err != nil {
			return pricedItem{}, apperr.Backend("could not load bundle", err)
		}
		if b == nil {
			return pricedItem{}, apperr.NotFound("bundle_not_found", "bundle not found")
		}
		line.Name = b.Name
		line.UnitPrice = pricing.BundlePrice(*b, s.bundleDiscount)
		return pricedItem{line: line, bundle: b}, nil
	}
	return pricedItem{}, validItem(item)
}

// pricedItems prices the user's stored cart. Lines whose product or bundle
// has since been removed from the catalog are skipped.
func (s *CartService) pricedItems(ctx context.Context, userID int64) ([]pricedItem, error) {
	stored, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, apperr.Backend("could not load cart", err)
	}
	items := make([]pricedItem, 0, len(stored))
	for _, l := range stored {
		pi, err := s.priceItem(ctx, l.Item, l.Quantity)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				s.log.Warn("dropping unknown cart item", zap.Int64("user_id", userID), zap.Stringer("item", l.Item))
				continue
			}
			return nil, err
		}
		items = append(items, pi)
	}
	return items, nil
}

func linesOf(items []pricedItem) []models.CartLine {
	lines := make([]models.CartLine, len(items))
	for i, it := range items {
		lines[i] = it.line
	}
	return lines
}

func (s *CartService) UserCart(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, apperr.AuthRequired("login required")
	}
	items, err := s.pricedItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := linesOf(items)
	return &models.Cart{UserID: userID, Lines: lines, Total: pricing.CartTotal(lines)}, nil
}

// checkStock rejects a cart holding more of a product than is on hand. qty
// is the total the line would hold, not the amount being added.
func checkStock(pi pricedItem, qty int) error {
	if pi.product != nil && pi.product.StockQuantity < qty {
		return apperr.State("insufficient_stock", "insufficient stock for "+pi.product.Name)
	}
	return nil
}

// inCart returns the quantity of item already in the user's stored cart.
func (s *CartService) inCart(ctx context.Context, userID int64, item models.ItemRef) (int, error) {
	stored, err := s.carts.Items(ctx, userID)
	if err != nil {
		return 0, apperr.Backend("could not load cart", err)
	}
	for _, l := range stored {
		if l.Item == item {
			return l.Quantity, nil
		}
	}
	return 0, nil
}

func (s *CartService) AddItem(ctx context.Context, userID int64, req models.AddToCartRequest) (*models.Cart, error) {
	if err := validItem(req.Item); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, apperr.Validation("invalid_quantity", "quantity must be at least 1")
	}
	pi, err := s.priceItem(ctx, req.Item, req.Quantity)
	if err != nil {
		return nil, err
	}
	if pi.product != nil {
		have, err := s.inCart(ctx, userID, req.Item)
		if err != nil {
			return nil, err
		}
		if err := checkStock(pi, have+req.Quantity); err != nil {
			return nil, err
		}
	}
	if err := s.carts.AddLine(ctx, userID, req.Item, req.Quantity); err != nil {
		return nil, apperr.Backend("could not update cart", err)
	}
	return s.UserCart(ctx, userID)
}

// UpdateItem sets an absolute quantity; zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID int64, req models.UpdateCartRequest) (*models.Cart, error) {
	if err := validItem(req.Item); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, apperr.Validation("invalid_quantity", "quantity cannot be negative")
	}
	if req.Quantity > 0 {
		pi, err := s.priceItem(ctx, req.Item, req.Quantity)
		if err != nil {
			return nil, err
		}
		if err := checkStock(pi, req.Quantity); err != nil {
			return nil, err
		}
	}
	found, err := s.carts.SetQuantity(ctx, userID, req.Item, req.Quantity)
	if err != nil {
		return nil, apperr.Backend("could not update cart", err)
	}
	if !found {
		return nil, apperr.NotFound("cart_item_not_found", "item is not in the cart")
	}
	return s.UserCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID int64, item models.ItemRef) (*models.Cart, error) {
	if err := validItem(item); err != nil {
		return nil, err
	}
	found, err := s.carts.RemoveLine(ctx, userID, item)
	if err != nil {
		return nil, apperr.Backend("could not update cart", err)
	}
	if !found {
		return nil, apperr.NotFound("cart_item_not_found", "item is not in the cart")
	}
	return s.UserCart(ctx, userID)
}

func guestView(guestID string, lines []models.CartLine) *models.Cart {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return &models.Cart{GuestID: guestID, Lines: lines, Total: pricing.CartTotal(lines)}
}

func validGuest(guestID string) error {
	if strings.TrimSpace(guestID) == "" {
		return apperr.Validation("guest_id_required", "guest id is required")
	}
	return nil
}

func (s *CartService) GuestCart(ctx context.Context, guestID string) (*models.Cart, error) {
	if err := validGuest(guestID); err != nil {
		return nil, err
	}
	lines, err := s.guests.Load(ctx, guestID)
	if err != nil {
		return nil, apperr.Backend("could not load cart", err)
	}
	return guestView(guestID, lines), nil
}

// mutateGuest loads the guest cart into a cart.State, applies fn and saves
// the result if fn changed anything.
func (s *CartService) mutateGuest(ctx context.Context, guestID string, fn func(st *cart.State) error) (*models.Cart, error) {
	if err := validGuest(guestID); err != nil {
		return nil, err
	}
	lines, err := s.guests.Load(ctx, guestID)
	if err != nil {
		return nil, apperr.Backend("could not load cart", err)
	}

	st := cart.NewState(lines)
	var changed []models.CartLine
	dirty := false
	unsubscribe := st.Subscribe(cart.ObserverFunc(func(l []models.CartLine) {
		changed = l
		dirty = true
	}))
	defer unsubscribe()

	if err := fn(st); err != nil {
		return nil, err
	}
	if dirty {
		if err := s.guests.Save(ctx, guestID, changed); err != nil {
			return nil, apperr.Backend("could not save cart", err)
		}
	}
	return guestView(guestID, st.Lines()), nil
}

func (s *CartService) AddGuestItem(ctx context.Context, guestID string, req models.AddToCartRequest) (*models.Cart, error) {
	if err := validItem(req.Item); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, apperr.Validation("invalid_quantity", "quantity must be at least 1")
	}
	pi, err := s.priceItem(ctx, req.Item, req.Quantity)
	if err != nil {
		return nil, err
	}
	return s.mutateGuest(ctx, guestID, func(st *cart.State) error {
		if err := checkStock(pi, st.Quantity(req.Item)+req.Quantity); err != nil {
			return err
		}
		st.Add(pi.line)
		return nil
	})
}

func (s *CartService) UpdateGuestItem(ctx context.Context, guestID string, req models.UpdateCartRequest) (*models.Cart, error) {
	if err := validItem(req.Item); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, apperr.Validation("invalid_quantity", "quantity cannot be negative")
	}
	if req.Quantity > 0 {
		pi, err := s.priceItem(ctx, req.Item, req.Quantity)
		if err != nil {
			return nil, err
		}
		if err := checkStock(pi, req.Quantity); err != nil {
			return nil, err
		}
	}
	return s.mutateGuest(ctx, guestID, func(st *cart.State) error {
		if !st.SetQuantity(req.Item, req.Quantity) {
			return apperr.NotFound("cart_item_not_found", "item is not in the cart")
		}
		return nil
	})
}

func (s *CartService) RemoveGuestItem(ctx context.Context, guestID string, item models.ItemRef) (*models.Cart, error) {
	if err := validItem(item); err != nil {
		return nil, err
	}
	return s.mutateGuest(ctx, guestID, func(st *cart.State) error {
		if !st.Remove(item) {
			return apperr.NotFound("cart_item_not_found", "item is not in the cart")
		}
		return nil
	})
}

// MergeGuest moves the guest cart into the user's cart. All lines are added
// in one transaction; the guest cart is deleted only after it commits, so a
// failed merge leaves both carts as they were. Lines whose item no longer
// exists are dropped.
func (s *CartService) MergeGuest(ctx context.Context, userID int64, guestID string) (int, error) {
	if userID <= 0 {
		return 0, apperr.AuthRequired("login required")
	}
	if strings.TrimSpace(guestID) == "" {
		return 0, nil
	}
	lines, err := s.guests.Load(ctx, guestID)
	if err != nil {
		return 0, apperr.Backend("could not load guest cart", err)
	}
	if len(lines) == 0 {
		return 0, nil
	}

	mergeable := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if _, err := s.priceItem(ctx, l.Item, l.Quantity); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue
			}
			return 0, err
		}
		mergeable = append(mergeable, l)
	}

	var applied int
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		n, err := cart.Merge(ctx, userID, mergeable, s.carts)
		applied = n
		return err
	})
	if err != nil {
		s.log.Warn("guest cart merge rolled back",
			zap.Int64("user_id", userID), zap.String("guest_id", guestID), zap.Error(err))
		return 0, apperr.Backend("could not merge guest cart", err)
	}

	if err := s.guests.Delete(ctx, guestID); err != nil {
		s.log.Error("could not delete merged guest cart", zap.String("guest_id", guestID), zap.Error(err))
	}
	s.log.Info("guest cart merged", zap.Int64("user_id", userID), zap.String("guest_id", guestID), zap.Int("lines", applied))
	return applied, nil
}
