package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

const pricingColumns = `p.id, p.name, p.image_url, p.price, p.promo_price, p.promo_active, p.stock_quantity`

func scanPricing(s rowScanner) (models.ProductPricing, error) {
	var p models.ProductPricing
	err := s.Scan(&p.ID, &p.Name, &p.Image, &p.BasePrice, &p.PromoPrice, &p.PromoActive, &p.StockQuantity)
	return p, err
}

// Product returns nil when the product does not exist.
func (r *CatalogRepo) Product(ctx context.Context, id int64) (*models.ProductPricing, error) {
	p, err := scanPricing(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+pricingColumns+` FROM products p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get product")
	}
	return &p, nil
}

// Bundle returns the bundle with its components, or nil when it does not
// exist.
func (r *CatalogRepo) Bundle(ctx context.Context, id int64) (*models.Bundle, error) {
	q := conn(ctx, r.db)
	b := models.Bundle{ID: id}
	err := q.QueryRowContext(ctx, `SELECT name FROM bundles WHERE id = $1`, id).Scan(&b.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get bundle")
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+pricingColumns+`, bp.quantity
		FROM bundle_products bp JOIN products p ON p.id = bp.product_id
		WHERE bp.bundle_id = $1
		ORDER BY p.id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "get bundle components")
	}
	defer rows.Close()

	for rows.Next() {
		var c models.BundleComponent
		err := rows.Scan(&c.Product.ID, &c.Product.Name, &c.Product.Image, &c.Product.BasePrice,
			&c.Product.PromoPrice, &c.Product.PromoActive, &c.Product.StockQuantity, &c.Quantity)
		if err != nil {
			return nil, errors.Wrap(err, "scan bundle component")
		}
		b.Components = append(b.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "get bundle components")
	}
	return &b, nil
}

// LockProducts reads the given products with row locks held until the
// surrounding transaction ends. Missing ids are absent from the map.
func (r *CatalogRepo) LockProducts(ctx context.Context, ids []int64) (map[int64]models.ProductPricing, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+pricingColumns+` FROM products p WHERE p.id = ANY($1) ORDER BY p.id FOR UPDATE`,
		pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "lock products")
	}
	defer rows.Close()

	out := make(map[int64]models.ProductPricing, len(ids))
	for rows.Next() {
		p, err := scanPricing(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out[p.ID] = p
	}
	return out, errors.Wrap(rows.Err(), "lock products")
}

func (r *CatalogRepo) DecrementStock(ctx context.Context, productID int64, qty int) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE products SET stock_quantity = stock_quantity - $2 WHERE id = $1 AND stock_quantity >= $2`,
		productID, qty)
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	if n == 0 {
		return errors.Errorf("product %d: stock below %d", productID, qty)
	}
	return nil
}

const summaryColumns = `p.id, p.name,
       CASE WHEN p.promo_active AND p.promo_price IS NOT NULL THEN p.promo_price ELSE p.price END,
       p.promo_price, p.description, p.image_url, p.stock_quantity, p.brand, p.category`

func (r *CatalogRepo) summaries(ctx context.Context, query string, args ...interface{}) ([]models.ProductSummary, error) {
	return querySummaries(ctx, conn(ctx, r.db), query, args...)
}

// querySummaries runs a query selecting summaryColumns.
func querySummaries(ctx context.Context, q DBTX, query string, args ...interface{}) ([]models.ProductSummary, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	out := []models.ProductSummary{}
	for rows.Next() {
		var p models.ProductSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.PromoPrice, &p.Description, &p.ImageURL,
			&p.StockQuantity, &p.Brand, &p.Category); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "query products")
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
}

// Search matches in-stock products by name, brand, category or description.
// Name prefix matches rank first, then brand prefix, then name and brand
// substrings.
func (r *CatalogRepo) Search(ctx context.Context, q string, limit int) ([]models.ProductSummary, error) {
	term := likeEscape(q)
	return r.summaries(ctx, `
		SELECT `+summaryColumns+`
		FROM products p
		WHERE (LOWER(p.name) LIKE '%' || $1 || '%' OR LOWER(p.brand) LIKE '%' || $1 || '%'
		       OR LOWER(p.category) LIKE '%' || $1 || '%' OR LOWER(p.description) LIKE '%' || $1 || '%')
		  AND p.stock_quantity > 0
		ORDER BY CASE
		    WHEN LOWER(p.name) LIKE $1 || '%' THEN 1
		    WHEN LOWER(p.brand) LIKE $1 || '%' THEN 2
		    WHEN LOWER(p.name) LIKE '%' || $1 || '%' THEN 3
		    WHEN LOWER(p.brand) LIKE '%' || $1 || '%' THEN 4
		    ELSE 5 END, p.name
		LIMIT $2`, term, limit)
}

// Suggestions is the short autocomplete variant of Search: name, brand and
// category only.
func (r *CatalogRepo) Suggestions(ctx context.Context, q string, limit int) ([]models.ProductSummary, error) {
	term := likeEscape(q)
	return r.summaries(ctx, `
		SELECT `+summaryColumns+`
		FROM products p
		WHERE (LOWER(p.name) LIKE '%' || $1 || '%' OR LOWER(p.brand) LIKE '%' || $1 || '%'
		       OR LOWER(p.category) LIKE '%' || $1 || '%')
		  AND p.stock_quantity > 0
		ORDER BY CASE
		    WHEN LOWER(p.name) LIKE $1 || '%' THEN 1
		    WHEN LOWER(p.name) LIKE '%' || $1 || '%' THEN 2
		    WHEN LOWER(p.brand) LIKE '%' || $1 || '%' THEN 3
		    ELSE 4 END, p.name
		LIMIT $2`, term, limit)
}

// BestSellers ranks in-stock products by units ordered.
func (r *CatalogRepo) BestSellers(ctx context.Context, limit int) ([]models.ProductSummary, error) {
	return r.summaries(ctx, `
		SELECT `+summaryColumns+`
		FROM products p
		LEFT JOIN order_lines ol ON ol.product_id = p.id
		WHERE p.stock_quantity > 0
		GROUP BY p.id
		ORDER BY COALESCE(SUM(ol.quantity), 0) DESC, p.name
		LIMIT $1`, limit)
}
