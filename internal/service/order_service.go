package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

const noteTimeLayout = "2006-01-02 15:04"

type OrderService struct {
	tx     TxRunner
	orders OrderRepo
	log    *zap.Logger
	now    func() time.Time
}

func NewOrderService(tx TxRunner, orders OrderRepo, log *zap.Logger) *OrderService {
	return &OrderService{tx: tx, orders: orders, log: log, now: time.Now}
}

func (s *OrderService) List(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Backend("could not list orders", err)
	}
	return orders, nil
}

// visible loads an order the caller may see: their own, or any order for
// admins. Other users' orders are reported as not found.
func (s *OrderService) visible(ctx context.Context, userID, orderID int64, admin bool) (*models.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, apperr.Backend("could not load order", err)
	}
	if o == nil || (!admin && o.UserID != userID) {
		return nil, apperr.NotFound("order_not_found", "order not found")
	}
	return o, nil
}

func (s *OrderService) Detail(ctx context.Context, userID, orderID int64, admin bool) (*models.OrderDetail, error) {
	o, err := s.visible(ctx, userID, orderID, admin)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		return nil, apperr.Backend("could not load order lines", err)
	}
	return &models.OrderDetail{Order: *o, Lines: lines}, nil
}

// Tracking returns the shipment record. Orders that have not shipped get a
// record carrying only their current status.
func (s *OrderService) Tracking(ctx context.Context, userID, orderID int64, admin bool) (*models.Shipment, error) {
	o, err := s.visible(ctx, userID, orderID, admin)
	if err != nil {
		return nil, err
	}
	sh, err := s.orders.Tracking(ctx, orderID)
	if err != nil {
		return nil, apperr.Backend("could not load tracking", err)
	}
	if sh == nil {
		return &models.Shipment{OrderID: o.ID, Status: o.Status, UpdatedAt: o.CreatedAt}, nil
	}
	return sh, nil
}

func (s *OrderService) note(status models.OrderStatus, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "status changed to " + string(status)
	}
	return fmt.Sprintf("%s - %s", s.now().UTC().Format(noteTimeLayout), text)
}

// UpdateStatus moves the order along its lifecycle. Shipping creates the
// tracking record with carrier, tracking code and the delivery address;
// later updates append a timestamped note to it.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, upd models.StatusUpdate) (*models.Shipment, error) {
	if !upd.Status.Valid() {
		return nil, apperr.Validation("invalid_status", "unknown order status")
	}
	if upd.Status == models.StatusShipped && (strings.TrimSpace(upd.Carrier) == "" || strings.TrimSpace(upd.TrackingCode) == "") {
		return nil, apperr.Validation("tracking_required", "carrier and tracking code are required to ship")
	}

	var shipment *models.Shipment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, orderID)
		if err != nil {
			return apperr.Backend("could not load order", err)
		}
		if o == nil {
			return apperr.NotFound("order_not_found", "order not found")
		}
		if !o.Status.CanTransition(upd.Status) {
			return apperr.State("invalid_status_transition",
				fmt.Sprintf("cannot move order from %s to %s", o.Status, upd.Status))
		}
		if err := s.orders.UpdateStatus(ctx, orderID, upd.Status); err != nil {
			return apperr.Backend("could not update order", err)
		}

		note := s.note(upd.Status, upd.Note)
		if upd.Status == models.StatusShipped {
			err = s.orders.CreateTracking(ctx, &models.Shipment{
				OrderID:      orderID,
				Status:       upd.Status,
				Carrier:      strings.TrimSpace(upd.Carrier),
				TrackingCode: strings.TrimSpace(upd.TrackingCode),
				Notes:        note,
				ShipTo:       o.DeliveryAddress,
			})
		} else {
			var found bool
			found, err = s.orders.AppendTrackingNote(ctx, orderID, upd.Status, note)
			if err == nil && !found {
				err = s.orders.CreateTracking(ctx, &models.Shipment{
					OrderID: orderID,
					Status:  upd.Status,
					Notes:   note,
					ShipTo:  o.DeliveryAddress,
				})
			}
		}
		if err != nil {
			return apperr.Backend("could not update tracking", err)
		}

		shipment, err = s.orders.Tracking(ctx, orderID)
		if err != nil {
			return apperr.Backend("could not load tracking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status updated", zap.Int64("order_id", orderID), zap.String("status", string(upd.Status)))
	return shipment, nil
}
