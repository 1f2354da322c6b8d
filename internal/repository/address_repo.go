package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type AddressRepo struct {
	db *sql.DB
}

func NewAddressRepo(db *sql.DB) *AddressRepo {
	return &AddressRepo{db: db}
}

const addressColumns = `id, user_id, recipient, street, city, postal_code, province, country, phone, is_default`

func scanAddress(s rowScanner) (*models.Address, error) {
	var a models.Address
	err := s.Scan(&a.ID, &a.UserID, &a.Recipient, &a.Street, &a.City, &a.PostalCode,
		&a.Province, &a.Country, &a.Phone, &a.IsDefault)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepo) one(ctx context.Context, op, query string, args ...interface{}) (*models.Address, error) {
	a, err := scanAddress(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, op)
	}
	return a, nil
}

// List returns the default address first.
func (r *AddressRepo) List(ctx context.Context, userID int64) ([]models.Address, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	defer rows.Close()

	out := []models.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan address")
		}
		out = append(out, *a)
	}
	return out, errors.Wrap(rows.Err(), "list addresses")
}

// Get returns the address only when it belongs to userID.
func (r *AddressRepo) Get(ctx context.Context, userID, id int64) (*models.Address, error) {
	return r.one(ctx, "get address",
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
}

// FindDuplicate looks for another address of the user with the same street
// and city (case-insensitive) and the same postal code. excludeID skips the
// address being edited; pass 0 on create.
func (r *AddressRepo) FindDuplicate(ctx context.Context, userID int64, street, city, postalCode string, excludeID int64) (*models.Address, error) {
	return r.one(ctx, "find duplicate address", `
		SELECT `+addressColumns+` FROM addresses
		WHERE user_id = $1 AND id <> $2
		  AND LOWER(street) = LOWER($3) AND LOWER(city) = LOWER($4) AND postal_code = $5
		LIMIT 1`, userID, excludeID, street, city, postalCode)
}

func (r *AddressRepo) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&n)
	return n, errors.Wrap(err, "count addresses")
}

func (r *AddressRepo) ClearDefault(ctx context.Context, userID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	return errors.Wrap(err, "clear default address")
}

func (r *AddressRepo) Create(ctx context.Context, a *models.Address) (*models.Address, error) {
	return r.one(ctx, "create address", `
		INSERT INTO addresses (user_id, recipient, street, city, postal_code, province, country, phone, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+addressColumns,
		a.UserID, a.Recipient, a.Street, a.City, a.PostalCode, a.Province, a.Country, a.Phone, a.IsDefault)
}

// Update returns nil when the address does not exist or is not the user's.
func (r *AddressRepo) Update(ctx context.Context, a *models.Address) (*models.Address, error) {
	return r.one(ctx, "update address", `
		UPDATE addresses
		SET recipient = $3, street = $4, city = $5, postal_code = $6, province = $7,
		    country = $8, phone = $9, is_default = $10
		WHERE id = $1 AND user_id = $2
		RETURNING `+addressColumns,
		a.ID, a.UserID, a.Recipient, a.Street, a.City, a.PostalCode, a.Province, a.Country, a.Phone, a.IsDefault)
}

// Delete returns the removed address, or nil when nothing matched.
func (r *AddressRepo) Delete(ctx context.Context, userID, id int64) (*models.Address, error) {
	return r.one(ctx, "delete address",
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING `+addressColumns, id, userID)
}

func (r *AddressRepo) MarkDefault(ctx context.Context, userID, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, errors.Wrap(err, "set default address")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "set default address")
}

// PromoteOldest makes the user's lowest-id address the default. It is used
// after the default address is deleted.
func (r *AddressRepo) PromoteOldest(ctx context.Context, userID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE addresses SET is_default = TRUE
		WHERE id = (SELECT MIN(id) FROM addresses WHERE user_id = $1)`, userID)
	return errors.Wrap(err, "promote default address")
}
