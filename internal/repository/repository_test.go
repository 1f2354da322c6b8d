package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var couponCols = []string{"id", "code", "description", "discount_kind", "discount_value", "min_order_amount",
	"starts_at", "ends_at", "max_redemptions", "redemption_count", "single_use_per_user", "active",
	"created_at", "updated_at"}

func TestCouponRepo_GetByCode(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM coupons WHERE code = $1")).
		WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows(couponCols).AddRow(
			1, "SAVE10", "ten off", "fixed", "10.00", "50.00",
			start, start.AddDate(0, 1, 0), 100, 3, true, true, start, start))

	c, err := repo.GetByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, models.DiscountFixed, c.Kind)
	assert.True(t, decimal.NewFromInt(10).Equal(c.Value))
	require.NotNil(t, c.MaxRedemptions)
	assert.Equal(t, 100, *c.MaxRedemptions)
	assert.Equal(t, 3, c.RedemptionCount)

	mock.ExpectQuery(regexp.QuoteMeta("FROM coupons WHERE code = $1")).
		WithArgs("save10").
		WillReturnError(sql.ErrNoRows)
	c, err = repo.GetByCode(context.Background(), "save10")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCouponRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	mock.ExpectQuery("INSERT INTO coupons").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Coupon{Code: "DUP", Kind: models.DiscountFixed})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestUsageRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUsageRepo(db)

	mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(4), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	used, err := repo.HasRedeemed(context.Background(), 4, 9)
	require.NoError(t, err)
	assert.True(t, used)

	mock.ExpectExec("INSERT INTO coupon_redemptions").
		WithArgs(int64(4), int64(9), int64(77)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Record(context.Background(), 4, 9, 77))

	mock.ExpectExec("INSERT INTO coupon_redemptions").
		WithArgs(int64(5), int64(9), int64(77)).
		WillReturnError(&pq.Error{Code: "23505"})
	err = repo.Record(context.Background(), 5, 9, 77)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestCartRepo_AddLineUpserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_bundles (user_id, bundle_id, quantity)")).
		WithArgs(int64(3), int64(8), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AddLine(context.Background(), 3, models.ItemRef{Kind: models.ItemBundle, ID: 8}, 2))

	err := repo.AddLine(context.Background(), 3, models.ItemRef{Kind: "gift", ID: 1}, 1)
	assert.Error(t, err)
}

func TestCartRepo_SetQuantityZeroDeletes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartRepo(db)
	item := models.ItemRef{Kind: models.ItemProduct, ID: 5}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2")).
		WithArgs(int64(3), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	found, err := repo.SetQuantity(context.Background(), 3, item, 0)
	require.NoError(t, err)
	assert.True(t, found)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items SET quantity = $3")).
		WithArgs(int64(3), int64(5), 4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	found, err = repo.SetQuantity(context.Background(), 3, item, 4)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCartRepo_Items(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCartRepo(db)

	mock.ExpectQuery("FROM cart_items").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "id", "quantity"}).
			AddRow("product", 5, 2).
			AddRow("bundle", 1, 1))

	lines, err := repo.Items(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, models.ItemRef{Kind: models.ItemBundle, ID: 1}, lines[1].Item)
}

func TestTxRunner_CommitAndRollback(t *testing.T) {
	db, mock := newMock(t)
	runner := NewTxRunner(db)
	carts := NewCartRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM cart_items").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM cart_bundles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := runner.InTx(context.Background(), func(ctx context.Context) error {
		return carts.Clear(ctx, 1)
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = runner.InTx(context.Background(), func(ctx context.Context) error {
		// nested calls join the outer transaction
		return runner.InTx(ctx, func(ctx context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)
}

func TestCatalogRepo_DecrementStock(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCatalogRepo(db)

	mock.ExpectExec("UPDATE products SET stock_quantity").WithArgs(int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DecrementStock(context.Background(), 2, 3))

	mock.ExpectExec("UPDATE products SET stock_quantity").WithArgs(int64(2), 30).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Error(t, repo.DecrementStock(context.Background(), 2, 30))
}

func TestCatalogRepo_Bundle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCatalogRepo(db)

	mock.ExpectQuery("SELECT name FROM bundles").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Starter kit"))
	mock.ExpectQuery("FROM bundle_products").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "image_url", "price", "promo_price", "promo_active", "stock_quantity", "quantity"}).
			AddRow(10, "Mug", "", "12.00", "10.00", true, 40, 2).
			AddRow(11, "Beans", "", "40.00", nil, false, 5, 1))

	b, err := repo.Bundle(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, b.Components, 2)
	assert.Equal(t, 2, b.Components[0].Quantity)
	assert.True(t, b.Components[0].Product.PromoPrice.Valid)
	assert.False(t, b.Components[1].Product.PromoPrice.Valid)
}

func TestOrderRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	code := "SAVE10"

	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))
	mock.ExpectExec("INSERT INTO order_lines").
		WithArgs(int64(55), int64(10), 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := repo.Create(context.Background(), &models.Order{
		UserID:     3,
		Status:     models.StatusCreated,
		CouponCode: &code,
		Payment:    models.PaymentDescriptor{Method: models.PaymentCreditCard, MaskedCard: "**** **** **** 1111"},
	}, []models.OrderLine{{ProductID: 10, Quantity: 2, UnitPrice: decimal.NewFromInt(5)}})
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)
}

func TestOrderRepo_AppendTrackingNote(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectExec("UPDATE order_tracking").
		WithArgs(int64(55), models.StatusInTransit, "2026-06-01 10:00 - left hub").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := repo.AppendTrackingNote(context.Background(), 55, models.StatusInTransit, "2026-06-01 10:00 - left hub")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddressRepo_FindDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAddressRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(street) = LOWER($3)")).
		WithArgs(int64(3), int64(0), "via roma 1", "MILANO", "20100").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "recipient", "street", "city", "postal_code", "province", "country", "phone", "is_default"}).
			AddRow(4, 3, "Anna", "Via Roma 1", "Milano", "20100", "MI", "IT", "", true))

	a, err := repo.FindDuplicate(context.Background(), 3, "via roma 1", "MILANO", "20100", 0)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(4), a.ID)
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Anna", "Bianchi", "anna@example.com", "hash", models.RoleCustomer).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{
		FirstName: "Anna", LastName: "Bianchi", Email: "Anna@Example.com", PasswordHash: "hash", Role: models.RoleCustomer,
	})
	assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindConflict, Code: "email_taken"}))
}

func TestWishlistRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWishlistRepo(db)

	mock.ExpectQuery("FROM wishlist_items w JOIN products p").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "promo_price", "description",
			"image_url", "stock_quantity", "brand", "category"}).
			AddRow(int64(1), "Shirt", "25.00", nil, "cotton", "shirt.jpg", 0, "Acme", "Clothing"))
	items, err := repo.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Shirt", items[0].Name)
	assert.Zero(t, items[0].StockQuantity, "out of stock products stay listed")
	assert.False(t, items[0].PromoPrice.Valid)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING")).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	added, err := repo.Add(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.False(t, added, "already saved")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM wishlist_items")).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := repo.Remove(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.True(t, removed)
}
