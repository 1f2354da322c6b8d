package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-service/internal/api/handlers"
	"github.com/Cheertaboi/storefront-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/auth"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

// The fakes embed the service interfaces; calling a method a test did not
// override panics, which the router turns into a 500.

type fakeCart struct {
	handlers.CartService
	guestIDs []string
	userIDs  []int64
}

func (f *fakeCart) GuestCart(_ context.Context, guestID string) (*models.Cart, error) {
	f.guestIDs = append(f.guestIDs, guestID)
	return &models.Cart{GuestID: guestID, Lines: []models.CartLine{}}, nil
}

func (f *fakeCart) UserCart(_ context.Context, userID int64) (*models.Cart, error) {
	f.userIDs = append(f.userIDs, userID)
	return &models.Cart{UserID: userID, Lines: []models.CartLine{}}, nil
}

func (f *fakeCart) RemoveGuestItem(_ context.Context, guestID string, item models.ItemRef) (*models.Cart, error) {
	return nil, apperr.NotFound("cart_item_not_found", "item is not in the cart")
}

type fakeCoupons struct {
	handlers.CouponService
	verified []models.VerifyRequest
}

func (f *fakeCoupons) Verify(_ context.Context, req models.VerifyRequest) (models.VerifyResult, error) {
	f.verified = append(f.verified, req)
	return models.Invalid(models.ReasonExpired, "coupon has expired", req.CartTotal), nil
}

func (f *fakeCoupons) DeleteCoupon(_ context.Context, id int64) error {
	return nil
}

type fakeCheckout struct{}

func (fakeCheckout) Submit(_ context.Context, userID int64, req models.CheckoutRequest) (*models.OrderConfirmation, error) {
	if req.CouponCode == "USED" {
		return nil, apperr.State(models.ReasonAlreadyUsed, "coupon already used")
	}
	return &models.OrderConfirmation{Success: true, OrderID: 77, TotalFinal: decimal.RequireFromString("45")}, nil
}

type fakeOrders struct {
	handlers.OrderService
}

func (fakeOrders) Detail(_ context.Context, userID, orderID int64, admin bool) (*models.OrderDetail, error) {
	if !admin && userID != 5 {
		return nil, apperr.NotFound("order_not_found", "order not found")
	}
	return &models.OrderDetail{Order: models.Order{ID: orderID, UserID: 5}}, nil
}

type fakeWishlist struct {
	handlers.WishlistService
	added []int64
}

func (f *fakeWishlist) Add(_ context.Context, userID, productID int64) ([]models.ProductSummary, error) {
	f.added = append(f.added, productID)
	return []models.ProductSummary{{ID: productID}}, nil
}

func (f *fakeWishlist) Remove(_ context.Context, userID, productID int64) ([]models.ProductSummary, error) {
	return []models.ProductSummary{}, nil
}

type testServer struct {
	handler  http.Handler
	tokens   *auth.TokenIssuer
	cart     *fakeCart
	coupons  *fakeCoupons
	wishlist *fakeWishlist
	customer string
	admin    string
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	tokens := auth.NewTokenIssuer("router-secret", time.Hour)
	customer, err := tokens.Issue(&models.User{ID: 5, Role: models.RoleCustomer})
	require.NoError(t, err)
	admin, err := tokens.Issue(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	s := &testServer{tokens: tokens, cart: &fakeCart{}, coupons: &fakeCoupons{}, wishlist: &fakeWishlist{}, customer: customer, admin: admin}
	s.handler = NewRouter(Deps{
		Cart:          s.cart,
		Coupons:       s.coupons,
		Wishlist:      s.wishlist,
		Checkout:      fakeCheckout{},
		Orders:        fakeOrders{},
		Tokens:        tokens,
		VerifyLimiter: limiter,
	})
	return s
}

func (s *testServer) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.CorrelationIDHeader))
}

func TestRouter_HealthDatabaseDown(t *testing.T) {
	h := NewRouter(Deps{
		Tokens: auth.NewTokenIssuer("x", time.Hour),
		Ping:   func(context.Context) error { return errors.New("down") },
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_GuestCart(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/cart", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	issued := rec.Header().Get(handlers.GuestIDHeader)
	assert.NotEmpty(t, issued, "a guest without an id gets one")

	rec = s.do(http.MethodGet, "/api/cart", "", "", handlers.GuestIDHeader, issued)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{issued, issued}, s.cart.guestIDs)

	rec = s.do(http.MethodGet, "/api/cart", s.customer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{5}, s.cart.userIDs)
	assert.Empty(t, rec.Header().Get(handlers.GuestIDHeader))

	rec = s.do(http.MethodDelete, "/api/cart/items/product/3", "", "", handlers.GuestIDHeader, issued)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/cart/items/product/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_VerifyCoupon(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/coupons/verify", "", `{"code":"SAVE","cart_total":"10"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/coupons/verify", s.customer, `{"code":"SAVE","cart_total":"10.50"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.VerifyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.Equal(t, models.ReasonExpired, res.Reason)

	require.Len(t, s.coupons.verified, 1)
	assert.Equal(t, int64(5), s.coupons.verified[0].UserID)
	assert.True(t, s.coupons.verified[0].CartTotal.Equal(decimal.RequireFromString("10.50")))

	rec = s.do(http.MethodPost, "/api/coupons/verify", s.customer, `{"cart_total":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_NoStandaloneRedeem(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodPost, "/api/coupons/redeem", s.customer, `{"coupon_id":1,"order_id":999}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_VerifyIsRateLimited(t *testing.T) {
	s := newTestServer(t, middleware.NewRateLimiter(1, 1))

	body := `{"code":"SAVE","cart_total":"10"}`
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/coupons/verify", s.customer, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/api/coupons/verify", s.customer, body).Code)
}

func TestRouter_Checkout(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/checkout", s.customer, `{"address_id":3,"payment":{}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var conf models.OrderConfirmation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conf))
	assert.Equal(t, int64(77), conf.OrderID)

	rec = s.do(http.MethodPost, "/api/checkout", s.customer, `{"address_id":3,"coupon_code":"USED"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), models.ReasonAlreadyUsed)
}

func TestRouter_OrderVisibility(t *testing.T) {
	s := newTestServer(t, nil)
	other, err := s.tokens.Issue(&models.User{ID: 6, Role: models.RoleCustomer})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/orders/9", s.customer, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/orders/9", other, "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/orders/9", s.admin, "").Code)
}

func TestRouter_Wishlist(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/wishlist", "", `{"product_id":3}`).Code)

	rec := s.do(http.MethodPost, "/api/wishlist", s.customer, `{"product_id":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{3}, s.wishlist.added)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/wishlist", s.customer, `{}`).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/wishlist/3", s.customer, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/wishlist/x", s.customer, "").Code)
}

func TestRouter_AdminOnly(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodDelete, "/api/admin/coupons/4", "", "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/admin/coupons/4", s.customer, "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/admin/coupons/4", s.admin, "").Code)
}
