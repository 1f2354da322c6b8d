package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `id, user_id, delivery_address, total_original, discount_applied, total_final,
       status, payment_method, cardholder_name, masked_card, coupon_code, created_at`

func scanOrder(s rowScanner) (*models.Order, error) {
	var o models.Order
	var coupon sql.NullString
	err := s.Scan(&o.ID, &o.UserID, &o.DeliveryAddress, &o.TotalOriginal, &o.DiscountApplied, &o.TotalFinal,
		&o.Status, &o.Payment.Method, &o.Payment.CardholderName, &o.Payment.MaskedCard, &coupon, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if coupon.Valid {
		o.CouponCode = &coupon.String
	}
	return &o, nil
}

// Create inserts the order header and its lines and returns the new id.
// Run it inside a transaction so a failed line insert leaves no header.
func (r *OrderRepo) Create(ctx context.Context, o *models.Order, lines []models.OrderLine) (int64, error) {
	q := conn(ctx, r.db)

	var coupon sql.NullString
	if o.CouponCode != nil {
		coupon = sql.NullString{String: *o.CouponCode, Valid: true}
	}

	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO orders
		(user_id, delivery_address, total_original, discount_applied, total_final, status,
		 payment_method, cardholder_name, masked_card, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id`,
		o.UserID, o.DeliveryAddress, o.TotalOriginal, o.DiscountApplied, o.TotalFinal, o.Status,
		o.Payment.Method, o.Payment.CardholderName, o.Payment.MaskedCard, coupon,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert order")
	}

	for _, l := range lines {
		_, err := q.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			id, l.ProductID, l.Quantity, l.UnitPrice)
		if err != nil {
			return 0, errors.Wrapf(err, "insert order line for product %d", l.ProductID)
		}
	}
	return id, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	out := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	return out, errors.Wrap(rows.Err(), "list orders")
}

func (r *OrderRepo) get(ctx context.Context, query string, id int64) (*models.Order, error) {
	o, err := scanOrder(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// LockByID reads the order with a row lock for a status change.
func (r *OrderRepo) LockByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) Lines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT ol.product_id, p.name, ol.quantity, ol.unit_price
		FROM order_lines ol JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id = $1
		ORDER BY ol.id`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list order lines")
	}
	defer rows.Close()

	out := []models.OrderLine{}
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, errors.Wrap(err, "scan order line")
		}
		out = append(out, l)
	}
	return out, errors.Wrap(rows.Err(), "list order lines")
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	return errors.Wrap(err, "update order status")
}

// Tracking returns nil for orders that have not shipped yet.
func (r *OrderRepo) Tracking(ctx context.Context, orderID int64) (*models.Shipment, error) {
	var s models.Shipment
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT order_id, status, carrier, tracking_code, notes, ship_to, updated_at
		FROM order_tracking WHERE order_id = $1`, orderID,
	).Scan(&s.OrderID, &s.Status, &s.Carrier, &s.TrackingCode, &s.Notes, &s.ShipTo, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get tracking")
	}
	return &s, nil
}

// CreateTracking inserts the shipment row, replacing any earlier one.
func (r *OrderRepo) CreateTracking(ctx context.Context, s *models.Shipment) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO order_tracking (order_id, status, carrier, tracking_code, notes, ship_to, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status, carrier = EXCLUDED.carrier, tracking_code = EXCLUDED.tracking_code,
		    notes = EXCLUDED.notes, ship_to = EXCLUDED.ship_to, updated_at = NOW()`,
		s.OrderID, s.Status, s.Carrier, s.TrackingCode, s.Notes, s.ShipTo)
	return errors.Wrap(err, "create tracking")
}

// AppendTrackingNote sets the tracking status and appends note on a new line.
// It reports whether a tracking row existed.
func (r *OrderRepo) AppendTrackingNote(ctx context.Context, orderID int64, status models.OrderStatus, note string) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE order_tracking
		SET status = $2,
		    notes = CASE WHEN notes = '' THEN $3 ELSE notes || E'\n' || $3 END,
		    updated_at = NOW()
		WHERE order_id = $1`, orderID, status, note)
	if err != nil {
		return false, errors.Wrap(err, "append tracking note")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "append tracking note")
}
