package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

const couponColumns = `id, code, description, discount_kind, discount_value, min_order_amount,
       starts_at, ends_at, max_redemptions, redemption_count, single_use_per_user,
       active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCoupon(s rowScanner) (*models.Coupon, error) {
	var c models.Coupon
	var maxRedemptions sql.NullInt64
	err := s.Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&c.Kind,
		&c.Value,
		&c.MinOrderAmount,
		&c.StartsAt,
		&c.EndsAt,
		&maxRedemptions,
		&c.RedemptionCount,
		&c.SingleUsePerUser,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxRedemptions.Valid {
		n := int(maxRedemptions.Int64)
		c.MaxRedemptions = &n
	}
	return &c, nil
}

func (r *CouponRepo) getOne(ctx context.Context, query string, args ...interface{}) (*models.Coupon, error) {
	c, err := scanCoupon(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get coupon")
	}
	return c, nil
}

// GetByCode matches the code exactly; codes are case-sensitive. It returns
// nil when no coupon has that code.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return r.getOne(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code)
}

func (r *CouponRepo) GetByID(ctx context.Context, id int64) (*models.Coupon, error) {
	return r.getOne(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
}

// LockByID reads the coupon with a row lock held until the surrounding
// transaction ends.
func (r *CouponRepo) LockByID(ctx context.Context, id int64) (*models.Coupon, error) {
	return r.getOne(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1 FOR UPDATE`, id)
}

func (r *CouponRepo) List(ctx context.Context) ([]models.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, id DESC`)
}

// ListActive returns active coupons whose validity window contains now.
func (r *CouponRepo) ListActive(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons
		WHERE active AND starts_at <= $1 AND ends_at > $1
		ORDER BY id`, now)
}

func (r *CouponRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Coupon, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan coupon")
		}
		coupons = append(coupons, *c)
	}
	return coupons, errors.Wrap(rows.Err(), "list coupons")
}

func maxRedemptionsArg(c *models.Coupon) interface{} {
	if c.MaxRedemptions == nil {
		return nil
	}
	return int64(*c.MaxRedemptions)
}

func (r *CouponRepo) Create(ctx context.Context, c *models.Coupon) (*models.Coupon, error) {
	query := `
		INSERT INTO coupons
		(code, description, discount_kind, discount_value, min_order_amount, starts_at, ends_at,
		 max_redemptions, single_use_per_user, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
		RETURNING ` + couponColumns

	created, err := scanCoupon(conn(ctx, r.db).QueryRowContext(ctx, query,
		c.Code,
		c.Description,
		c.Kind,
		c.Value,
		c.MinOrderAmount,
		c.StartsAt,
		c.EndsAt,
		maxRedemptionsArg(c),
		c.SingleUsePerUser,
		c.Active,
	))
	if err != nil {
		return nil, conflictOr(err, "coupon_code_taken", "a coupon with this code already exists", "create coupon")
	}
	return created, nil
}

// Update overwrites the editable fields. The redemption count is kept. It
// returns nil when the coupon does not exist.
func (r *CouponRepo) Update(ctx context.Context, id int64, c *models.Coupon) (*models.Coupon, error) {
	query := `
		UPDATE coupons
		SET code = $2, description = $3, discount_kind = $4, discount_value = $5,
		    min_order_amount = $6, starts_at = $7, ends_at = $8, max_redemptions = $9,
		    single_use_per_user = $10, active = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + couponColumns

	updated, err := scanCoupon(conn(ctx, r.db).QueryRowContext(ctx, query,
		id,
		c.Code,
		c.Description,
		c.Kind,
		c.Value,
		c.MinOrderAmount,
		c.StartsAt,
		c.EndsAt,
		maxRedemptionsArg(c),
		c.SingleUsePerUser,
		c.Active,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, conflictOr(err, "coupon_code_taken", "a coupon with this code already exists", "update coupon")
	}
	return updated, nil
}

func (r *CouponRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete coupon")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "delete coupon")
}

func (r *CouponRepo) IncrementRedemptions(ctx context.Context, id int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE coupons SET redemption_count = redemption_count + 1, updated_at = NOW() WHERE id = $1`, id)
	return errors.Wrap(err, "increment redemptions")
}
