// Package config reads the service settings from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/pkg/db"
)

const (
	GuestCartMemory = "memory"
	GuestCartMongo  = "mongo"
)

type Config struct {
	Stage    string
	HTTPAddr string
	LogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	Postgres db.PostgresConfig

	GuestCartBackend string
	GuestCartTTL     time.Duration
	MongoURI         string
	MongoDB          string

	ResendAPIKey string
	MailFrom     string

	VerifyRatePerSec int
	VerifyRateBurst  int

	BundleDiscountPercent int
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	pg, err := db.LoadPostgresConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Stage:            getEnv("STAGE", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		Postgres:         pg,
		GuestCartBackend: getEnv("GUEST_CART_BACKEND", GuestCartMemory),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "storefront"),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		MailFrom:         getEnv("MAIL_FROM", "orders@storefront.local"),
	}

	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GuestCartTTL, err = getDuration("GUEST_CART_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.VerifyRatePerSec, err = getInt("VERIFY_RATE_PER_SEC", 5); err != nil {
		return nil, err
	}
	if cfg.VerifyRateBurst, err = getInt("VERIFY_RATE_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.BundleDiscountPercent, err = getInt("BUNDLE_DISCOUNT_PERCENT", 15); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.GuestCartBackend {
	case GuestCartMemory:
	case GuestCartMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when GUEST_CART_BACKEND=mongo")
		}
	default:
		return errors.Errorf("unknown GUEST_CART_BACKEND %q", c.GuestCartBackend)
	}
	if c.BundleDiscountPercent < 0 || c.BundleDiscountPercent >= 100 {
		return errors.Errorf("BUNDLE_DISCOUNT_PERCENT must be in [0, 100), got %d", c.BundleDiscountPercent)
	}
	if c.VerifyRatePerSec <= 0 || c.VerifyRateBurst <= 0 {
		return errors.New("VERIFY_RATE_PER_SEC and VERIFY_RATE_BURST must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return d, nil
}
