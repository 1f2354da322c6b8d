package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/models"
	"github.com/Cheertaboi/storefront-service/internal/notify"
	"github.com/Cheertaboi/storefront-service/internal/pricing"
)

type CheckoutService struct {
	tx        TxRunner
	carts     *CartService
	catalog   CatalogRepo
	addresses AddressRepo
	orders    OrderRepo
	users     UserRepo
	coupons   *CouponService
	notifier  notify.Notifier
	log       *zap.Logger
}

func NewCheckoutService(
	tx TxRunner,
	carts *CartService,
	catalog CatalogRepo,
	addresses AddressRepo,
	orders OrderRepo,
	users UserRepo,
	coupons *CouponService,
	notifier notify.Notifier,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		tx:        tx,
		carts:     carts,
		catalog:   catalog,
		addresses: addresses,
		orders:    orders,
		users:     users,
		coupons:   coupons,
		notifier:  notifier,
		log:       log,
	}
}

// deliveryAddress resolves the address snapshot for the order: a saved
// address owned by the user, or a complete inline address.
func (s *CheckoutService) deliveryAddress(ctx context.Context, userID int64, req *models.CheckoutRequest) (string, error) {
	if req.AddressID != nil {
		a, err := s.addresses.Get(ctx, userID, *req.AddressID)
		if err != nil {
			return "", apperr.Backend("could not load address", err)
		}
		if a == nil {
			return "", apperr.NotFound("address_not_found", "address not found")
		}
		return a.Snapshot(), nil
	}
	if req.Address == nil {
		return "", apperr.Validation("address_required", "select a saved address or enter a new one")
	}
	in := *req.Address
	in.Normalize()
	if !in.Complete() {
		return "", apperr.Validation("incomplete_address", "all address fields are required")
	}
	return in.ToAddress(userID).Snapshot(), nil
}

// orderLines expands bundles into their component products. Each component
// line carries the component's own effective price.
func orderLines(items []pricedItem) []models.OrderLine {
	var out []models.OrderLine
	for _, it := range items {
		if it.product != nil {
			out = append(out, models.OrderLine{
				ProductID: it.product.ID,
				Name:      it.product.Name,
				Quantity:  it.line.Quantity,
				UnitPrice: it.line.UnitPrice,
			})
			continue
		}
		for _, c := range it.bundle.Components {
			qty := c.Quantity
			if qty <= 0 {
				qty = 1
			}
			out = append(out, models.OrderLine{
				ProductID: c.Product.ID,
				Name:      c.Product.Name,
				Quantity:  it.line.Quantity * qty,
				UnitPrice: pricing.EffectivePrice(c.Product),
			})
		}
	}
	return out
}

// stockNeeds sums the quantity required per product across all lines.
func stockNeeds(lines []models.OrderLine) (map[int64]int, []int64) {
	need := make(map[int64]int)
	for _, l := range lines {
		need[l.ProductID] += l.Quantity
	}
	ids := make([]int64, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return need, ids
}

// Submit places an order for the user's current cart. The order insert,
// stock decrement, coupon redemption and cart clear commit together or not
// at all. Nothing is retried.
func (s *CheckoutService) Submit(ctx context.Context, userID int64, req models.CheckoutRequest) (*models.OrderConfirmation, error) {
	if userID <= 0 {
		return nil, apperr.AuthRequired("login required to check out")
	}
	if field, msg := req.Payment.Validate(); field != "" {
		return nil, apperr.Validation("invalid_"+field, msg)
	}
	address, err := s.deliveryAddress(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.pricedItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.Validation("empty_cart", "cart is empty")
	}
	cartLines := linesOf(items)

	var applied *models.Coupon
	if req.CouponCode != "" {
		res, err := s.coupons.Verify(ctx, models.VerifyRequest{UserID: userID, Code: req.CouponCode, CartTotal: pricing.CartTotal(cartLines)})
		if err != nil {
			return nil, err
		}
		if !res.Valid {
			return nil, apperr.State(res.Reason, res.Message)
		}
		applied = res.Coupon
	}
	totalOriginal, discount, totalFinal := pricing.Totals(cartLines, applied)

	lines := orderLines(items)
	need, productIDs := stockNeeds(lines)

	order := &models.Order{
		UserID:          userID,
		DeliveryAddress: address,
		Payment:         req.Payment.Descriptor(),
		TotalOriginal:   totalOriginal,
		DiscountApplied: discount,
		TotalFinal:      totalFinal,
		Status:          models.StatusCreated,
	}
	if applied != nil {
		order.CouponCode = &applied.Code
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		stock, err := s.catalog.LockProducts(ctx, productIDs)
		if err != nil {
			return apperr.Backend("could not check stock", err)
		}
		for _, id := range productIDs {
			p, ok := stock[id]
			if !ok {
				return apperr.State("product_unavailable", "a product in the cart is no longer available")
			}
			if p.StockQuantity < need[id] {
				return apperr.State("insufficient_stock", "insufficient stock for "+p.Name)
			}
		}

		orderID, err := s.orders.Create(ctx, order, lines)
		if err != nil {
			return apperr.Backend("could not create order", err)
		}
		order.ID = orderID

		for _, id := range productIDs {
			if err := s.catalog.DecrementStock(ctx, id, need[id]); err != nil {
				return apperr.Backend("could not update stock", err)
			}
		}
		if applied != nil {
			if err := s.coupons.Redeem(ctx, applied.ID, userID, orderID); err != nil {
				return err
			}
		}
		if err := s.carts.carts.Clear(ctx, userID); err != nil {
			return apperr.Backend("could not clear cart", err)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("checkout failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	order.CreatedAt = time.Now().UTC()

	s.log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("total", totalFinal.StringFixed(2)),
	)
	s.notifyPlaced(ctx, order, items)

	conf := &models.OrderConfirmation{
		Success:         true,
		Message:         "order placed",
		OrderID:         order.ID,
		TotalOriginal:   totalOriginal,
		DiscountApplied: discount,
		TotalFinal:      totalFinal,
	}
	if applied != nil {
		conf.AppliedCoupon = applied.Applied()
	}
	return conf, nil
}

// notifyPlaced sends the confirmation mail. Failures are logged only; the
// order is already committed.
func (s *CheckoutService) notifyPlaced(ctx context.Context, o *models.Order, items []pricedItem) {
	u, err := s.users.GetByID(ctx, o.UserID)
	if err != nil || u == nil {
		s.log.Warn("order notification skipped: user lookup failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}

	evt := notify.OrderPlaced{
		OrderID:         o.ID,
		CustomerName:    u.FirstName,
		CustomerEmail:   u.Email,
		DeliveryAddress: o.DeliveryAddress,
		TotalOriginal:   o.TotalOriginal,
		DiscountApplied: o.DiscountApplied,
		TotalFinal:      o.TotalFinal,
	}
	if o.CouponCode != nil {
		evt.CouponCode = *o.CouponCode
	}
	for _, it := range items {
		evt.Lines = append(evt.Lines, notify.Line{Name: it.line.Name, Quantity: it.line.Quantity, Subtotal: it.line.Subtotal()})
	}

	if err := s.notifier.OrderPlaced(ctx, evt); err != nil {
		s.log.Warn("order notification failed", zap.Int64("order_id", o.ID), zap.Error(err))
	}
}
