// Package config provides centralized configuration loading for all ReelGate services.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all ReelGate service configuration.
type Config struct {
	// Core
	Env     string
	Port    string
	BaseURL string

	// Backend platform (identity, record store, object storage)
	PlatformURL        string
	PlatformAnonKey    string
	PlatformServiceKey string
	PlatformJWTSecret  string // optional: enables local HS256 token verification
	VideoBucket        string

	// Signed URL lifetimes
	SignedURLTTL       time.Duration // private media
	PublicSignedURLTTL time.Duration // public media, no auth

	// Service-owned Postgres (view events, payment audit)
	PostgresURL string

	// Redis
	RedisURL string

	// Payment provider (order creation + signature verification)
	PaymentKeyID     string
	PaymentKeySecret string
	PaymentBaseURL   string

	// Stripe (optional alternate checkout path)
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceMonthly  string
	StripePriceYearly   string

	// Sentry
	SentryDSN string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables. The platform URL and
// both platform keys are mandatory: entitlement and signing cannot run
// without the privileged service-role tier, and identity verification cannot
// run without the anon tier.
func Load() (*Config, error) {
	c := &Config{
		Env:     getenv("REELGATE_ENV", "production"),
		Port:    getenv("PORT", "8080"),
		BaseURL: getenv("REELGATE_BASE_URL", "https://reelgate.app"),

		PlatformURL:        strings.TrimRight(os.Getenv("PLATFORM_URL"), "/"),
		PlatformAnonKey:    os.Getenv("PLATFORM_ANON_KEY"),
		PlatformServiceKey: os.Getenv("PLATFORM_SERVICE_ROLE_KEY"),
		PlatformJWTSecret:  os.Getenv("PLATFORM_JWT_SECRET"),
		VideoBucket:        getenv("VIDEO_BUCKET", "videos"),

		SignedURLTTL:       time.Hour,
		PublicSignedURLTTL: 10 * time.Minute,

		PostgresURL: os.Getenv("POSTGRES_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		PaymentKeyID:     os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret: os.Getenv("PAYMENT_KEY_SECRET"),
		PaymentBaseURL:   getenv("PAYMENT_BASE_URL", "https://api.razorpay.com"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceMonthly:  os.Getenv("STRIPE_PRICE_MONTHLY"),
		StripePriceYearly:   os.Getenv("STRIPE_PRICE_YEARLY"),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		LogLevel: getenv("LOG_LEVEL", "info"),
	}

	// Validation for mandatory fields.
	if c.PlatformURL == "" {
		return nil, fmt.Errorf("PLATFORM_URL is required")
	}
	if c.PlatformAnonKey == "" {
		return nil, fmt.Errorf("PLATFORM_ANON_KEY is required")
	}
	if c.PlatformServiceKey == "" {
		return nil, fmt.Errorf("PLATFORM_SERVICE_ROLE_KEY is required")
	}

	// Payment credentials come as a pair or not at all.
	if (c.PaymentKeyID == "") != (c.PaymentKeySecret == "") {
		return nil, fmt.Errorf("PAYMENT_KEY_ID and PAYMENT_KEY_SECRET must be set together")
	}

	return c, nil
}

// IsDevelopment reports whether ReelGate is running in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// PaymentsConfigured reports whether the payment provider credentials are set.
func (c *Config) PaymentsConfigured() bool {
	return c.PaymentKeyID != "" && c.PaymentKeySecret != ""
}

// StripeConfigured reports whether the optional Stripe checkout path is enabled.
func (c *Config) StripeConfigured() bool {
	return c.StripeSecretKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
