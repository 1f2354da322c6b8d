package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/api"
	"github.com/Cheertaboi/storefront-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-service/internal/auth"
	"github.com/Cheertaboi/storefront-service/internal/config"
	"github.com/Cheertaboi/storefront-service/internal/guestcart"
	"github.com/Cheertaboi/storefront-service/internal/logger"
	"github.com/Cheertaboi/storefront-service/internal/notify"
	"github.com/Cheertaboi/storefront-service/internal/repository"
	"github.com/Cheertaboi/storefront-service/internal/service"
	"github.com/Cheertaboi/storefront-service/pkg/db"
)

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.Stage, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Error("storefront-service stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.NewPostgresConnection(ctx, cfg.Postgres)
	if err != nil {
		return errors.Wrap(err, "db connect")
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	guests, closeGuests, err := guestStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGuests()

	handler := buildRouter(ctx, cfg, conn, guests)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	logger.Info("starting storefront-service", zap.String("addr", cfg.HTTPAddr), zap.String("stage", cfg.Stage))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "listen")
	}

	<-idleConnsClosed
	return nil
}

// guestStore opens the configured guest cart backend. The returned func
// releases it.
func guestStore(ctx context.Context, cfg *config.Config) (guestcart.Store, func(), error) {
	if cfg.GuestCartBackend != config.GuestCartMongo {
		store := guestcart.NewMemoryStore(cfg.GuestCartTTL)
		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := store.Sweep(); n > 0 {
						logger.Debug("expired guest carts removed", zap.Int("count", n))
					}
				}
			}
		}()
		return store, func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "mongo ping")
	}

	store := guestcart.NewMongoStore(client.Database(cfg.MongoDB), cfg.GuestCartTTL)
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	logger.Info("guest carts stored in mongo", zap.String("db", cfg.MongoDB))
	return store, func() { _ = client.Disconnect(context.Background()) }, nil
}

func buildRouter(ctx context.Context, cfg *config.Config, conn *sql.DB, guests guestcart.Store) http.Handler {
	log := logger.Log

	tx := repository.NewTxRunner(conn)
	couponRepo := repository.NewCouponRepo(conn)
	usageRepo := repository.NewUsageRepo(conn)
	cartRepo := repository.NewCartRepo(conn)
	catalogRepo := repository.NewCatalogRepo(conn)
	addressRepo := repository.NewAddressRepo(conn)
	orderRepo := repository.NewOrderRepo(conn)
	userRepo := repository.NewUserRepo(conn)
	wishlistRepo := repository.NewWishlistRepo(conn)

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.ResendAPIKey != "" {
		notifier = notify.NewResendNotifier(cfg.ResendAPIKey, cfg.MailFrom, log)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	coupons := service.NewCouponService(tx, couponRepo, usageRepo, log)
	carts := service.NewCartService(tx, cartRepo, catalogRepo, guests, cfg.BundleDiscountPercent, log)

	limiter := middleware.NewRateLimiter(cfg.VerifyRatePerSec, cfg.VerifyRateBurst)
	go limiter.Run(ctx, sweepInterval)

	return api.NewRouter(api.Deps{
		Auth:          service.NewAuthService(userRepo, carts, tokens, log),
		Catalog:       service.NewCatalogService(catalogRepo),
		Cart:          carts,
		Coupons:       coupons,
		Addresses:     service.NewAddressService(tx, addressRepo, log),
		Wishlist:      service.NewWishlistService(wishlistRepo, catalogRepo, log),
		Checkout:      service.NewCheckoutService(tx, carts, catalogRepo, addressRepo, orderRepo, userRepo, coupons, notifier, log),
		Orders:        service.NewOrderService(tx, orderRepo, log),
		Tokens:        tokens,
		VerifyLimiter: limiter,
		Ping:          conn.PingContext,
	})
}
