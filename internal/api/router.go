package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Cheertaboi/storefront-service/internal/api/handlers"
	"github.com/Cheertaboi/storefront-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-service/internal/auth"
)

// Deps are the services and collaborators the router serves.
type Deps struct {
	Auth      handlers.AuthService
	Catalog   handlers.CatalogService
	Cart      handlers.CartService
	Coupons   handlers.CouponService
	Addresses handlers.AddressService
	Wishlist  handlers.WishlistService
	Checkout  handlers.CheckoutService
	Orders    handlers.OrderService

	Tokens        *auth.TokenIssuer
	VerifyLimiter *middleware.RateLimiter
	// Ping reports database health; nil skips the check.
	Ping func(ctx context.Context) error
}

// NewRouter builds the HTTP router for the storefront service
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	authHandler := handlers.NewAuthHandler(d.Auth)
	catalogHandler := handlers.NewCatalogHandler(d.Catalog)
	cartHandler := handlers.NewCartHandler(d.Cart)
	couponHandler := handlers.NewCouponHandler(d.Coupons)
	addressHandler := handlers.NewAddressHandler(d.Addresses)
	wishlistHandler := handlers.NewWishlistHandler(d.Wishlist)
	orderHandler := handlers.NewOrderHandler(d.Checkout, d.Orders)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(d.Tokens))

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/search", catalogHandler.Search)
			r.Get("/suggestions", catalogHandler.Suggestions)
			r.Get("/bestsellers", catalogHandler.BestSellers)
		})

		// Cart works for guests too.
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Post("/items", cartHandler.Add)
			r.Put("/items", cartHandler.Update)
			r.Delete("/items/{kind}/{id}", cartHandler.Remove)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Route("/coupons", func(r chi.Router) {
				verify := http.HandlerFunc(couponHandler.VerifyCoupon)
				if d.VerifyLimiter != nil {
					r.Method(http.MethodPost, "/verify", d.VerifyLimiter.Limit(verify))
				} else {
					r.Post("/verify", verify)
				}
				r.Post("/applicable", couponHandler.GetApplicableCoupons)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", addressHandler.List)
				r.Post("/", addressHandler.Create)
				r.Put("/{id}", addressHandler.Update)
				r.Delete("/{id}", addressHandler.Delete)
				r.Put("/{id}/default", addressHandler.SetDefault)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishlistHandler.List)
				r.Post("/", wishlistHandler.Add)
				r.Delete("/{productID}", wishlistHandler.Remove)
			})

			r.Post("/checkout", orderHandler.Checkout)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.List)
				r.Get("/{id}", orderHandler.Get)
				r.Get("/{id}/tracking", orderHandler.Tracking)
			})
		})

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/coupons", couponHandler.ListCoupons)
			r.Post("/coupons", couponHandler.CreateCoupon)
			r.Put("/coupons/{id}", couponHandler.UpdateCoupon)
			r.Delete("/coupons/{id}", couponHandler.DeleteCoupon)
			r.Patch("/orders/{id}/status", orderHandler.UpdateStatus)
		})
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("database unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
