package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type WishlistRepo struct {
	db *sql.DB
}

func NewWishlistRepo(db *sql.DB) *WishlistRepo {
	return &WishlistRepo{db: db}
}

// List returns the saved products, most recently added first. Out of stock
// products are included.
func (r *WishlistRepo) List(ctx context.Context, userID int64) ([]models.ProductSummary, error) {
	out, err := querySummaries(ctx, conn(ctx, r.db), `
		SELECT `+summaryColumns+`
		FROM wishlist_items w JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, p.id`, userID)
	return out, errors.Wrap(err, "list wishlist")
}

// Add saves the product. Adding a product already saved is a no-op; the
// result reports whether a row was inserted.
func (r *WishlistRepo) Add(ctx context.Context, userID, productID int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, productID)
	if err != nil {
		return false, errors.Wrap(err, "add wishlist item")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "add wishlist item")
}

func (r *WishlistRepo) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, errors.Wrap(err, "remove wishlist item")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "remove wishlist item")
}
