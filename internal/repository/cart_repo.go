package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

// CartRepo stores the carts of authenticated users. Products and bundles
// live in separate tables; both are keyed by (user_id, item id).
type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

func cartTable(kind models.ItemKind) (table, column string, err error) {
	switch kind {
	case models.ItemProduct:
		return "cart_items", "product_id", nil
	case models.ItemBundle:
		return "cart_bundles", "bundle_id", nil
	}
	return "", "", errors.Errorf("unknown item kind %q", kind)
}

// Items returns the user's lines without prices: products first, then
// bundles, each ordered by id.
func (r *CartRepo) Items(ctx context.Context, userID int64) ([]models.CartLine, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT 'product', product_id, quantity FROM cart_items WHERE user_id = $1
		UNION ALL
		SELECT 'bundle', bundle_id, quantity FROM cart_bundles WHERE user_id = $1
		ORDER BY 1 DESC, 2`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.Item.Kind, &l.Item.ID, &l.Quantity); err != nil {
			return nil, errors.Wrap(err, "scan cart line")
		}
		lines = append(lines, l)
	}
	return lines, errors.Wrap(rows.Err(), "load cart")
}

// AddLine adds qty of item, summing with any quantity already in the cart.
func (r *CartRepo) AddLine(ctx context.Context, userID int64, item models.ItemRef, qty int) error {
	table, col, err := cartTable(item.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (user_id, %[2]s, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, %[2]s) DO UPDATE SET quantity = %[1]s.quantity + EXCLUDED.quantity`, table, col)
	_, err = conn(ctx, r.db).ExecContext(ctx, query, userID, item.ID, qty)
	return errors.Wrapf(err, "add %s to cart", item)
}

// SetQuantity sets an absolute quantity; qty <= 0 deletes the line. It
// reports whether the line existed.
func (r *CartRepo) SetQuantity(ctx context.Context, userID int64, item models.ItemRef, qty int) (bool, error) {
	if qty <= 0 {
		return r.RemoveLine(ctx, userID, item)
	}
	table, col, err := cartTable(item.Kind)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`UPDATE %s SET quantity = $3 WHERE user_id = $1 AND %s = $2`, table, col)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, userID, item.ID, qty)
	if err != nil {
		return false, errors.Wrapf(err, "update %s in cart", item)
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "update cart")
}

func (r *CartRepo) RemoveLine(ctx context.Context, userID int64, item models.ItemRef) (bool, error) {
	table, col, err := cartTable(item.Kind)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND %s = $2`, table, col)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, userID, item.ID)
	if err != nil {
		return false, errors.Wrapf(err, "remove %s from cart", item)
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "remove from cart")
}

// Clear empties both the product and the bundle cart.
func (r *CartRepo) Clear(ctx context.Context, userID int64) error {
	q := conn(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "clear cart products")
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM cart_bundles WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "clear cart bundles")
	}
	return nil
}
