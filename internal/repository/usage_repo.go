package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// UsageRepo records coupon redemptions per user.
type UsageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

func (r *UsageRepo) HasRedeemed(ctx context.Context, couponID, userID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2)`,
		couponID, userID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check redemption")
	}
	return exists, nil
}

// Record inserts a redemption row. An order carries at most one
// redemption; a second one is a conflict.
func (r *UsageRepo) Record(ctx context.Context, couponID, userID, orderID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO coupon_redemptions (coupon_id, user_id, order_id, redeemed_at) VALUES ($1, $2, $3, NOW())`,
		couponID, userID, orderID,
	)
	if err != nil {
		return conflictOr(err, "order_already_redeemed", "a coupon was already redeemed for this order", "record redemption")
	}
	return nil
}
