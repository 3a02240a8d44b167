// main.go — ReelGate API server entrypoint.
// Environment loaded from .env (for local dev) or injected by container.
package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/config"
	"github.com/reelgate/reelgate/internal/middleware"
	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/internal/ratelimit"
	"github.com/reelgate/reelgate/internal/shutdown"
	"github.com/reelgate/reelgate/pkg/logging"
	"github.com/reelgate/reelgate/services/billing"
	"github.com/reelgate/reelgate/services/catalog"
	"github.com/reelgate/reelgate/services/creators"
	"github.com/reelgate/reelgate/services/playback"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := logging.NewLogger("api")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
		}); err != nil {
			log.WithError(err).Warn("sentry init failed, continuing without")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	pc := platform.New(platform.Options{
		BaseURL:        cfg.PlatformURL,
		AnonKey:        cfg.PlatformAnonKey,
		ServiceRoleKey: cfg.PlatformServiceKey,
		JWTSecret:      cfg.PlatformJWTSecret,
	})

	// Postgres holds the service-owned tables (views, payment audit). The
	// managed backend keeps everything else, so the API runs without it.
	var db *sql.DB
	if cfg.PostgresURL != "" {
		db, err = connectDB(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer db.Close()
		log.Info("postgres connected")
	} else {
		log.Warn("POSTGRES_URL not set, views and payment audit disabled")
	}

	// Rate limiting degrades gracefully without Redis.
	var store ratelimit.Store
	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = ratelimit.NewRedisStore(goredis.NewClient(opts))
		log.Info("redis connected")
	} else {
		log.Warn("REDIS_URL not set, rate limiting disabled")
	}
	limiter := ratelimit.New(store)

	var provider *billing.Provider
	if cfg.PaymentsConfigured() {
		provider = billing.NewProvider(cfg.PaymentKeyID, cfg.PaymentKeySecret, cfg.PaymentBaseURL)
	} else {
		log.Warn("payment keys not set, billing endpoints will answer 503")
	}

	r := chi.NewRouter()
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","service":"reelgate"}`)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/playback", playback.NewServer(
		pc, limiter, cfg.VideoBucket, cfg.SignedURLTTL, cfg.PublicSignedURLTTL,
		logging.NewLogger("playback"),
	).Routes())

	r.Mount("/catalog", catalog.NewServer(
		pc, limiter, catalog.NewViewStore(db),
		logging.NewLogger("catalog"),
	).Routes())

	r.Mount("/billing", billing.NewServer(
		pc, provider,
		billing.StripeOptions{
			SecretKey:      cfg.StripeSecretKey,
			WebhookSecret:  cfg.StripeWebhookSecret,
			PriceMonthly:   cfg.StripePriceMonthly,
			PriceYearly:    cfg.StripePriceYearly,
			SuccessBaseURL: cfg.BaseURL,
		},
		limiter, billing.NewAuditStore(db),
		logging.NewLogger("billing"),
	).Routes())

	r.Mount("/creators", creators.NewServer(pc, logging.NewLogger("creators")).Routes())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithField("port", cfg.Port).Info("reelgate api starting")
	if err := shutdown.GracefulServe(srv, 15*time.Second, log); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// connectDB opens the service-owned Postgres with sane pool limits.
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
