// server.go — billing service: payment orders, verification, subscriptions.
package billing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/httpapi"
	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/internal/ratelimit"
)

// StripeOptions configures the optional Stripe checkout path. Zero value
// disables it.
type StripeOptions struct {
	SecretKey      string
	WebhookSecret  string
	PriceMonthly   string
	PriceYearly    string
	SuccessBaseURL string
}

// Server holds the billing service dependencies. provider is nil when
// Razorpay keys are not configured; payment endpoints then answer 503.
type Server struct {
	pc       *platform.Client
	provider *Provider
	stripe   StripeOptions
	limiter  *ratelimit.Limiter
	audit    *AuditStore
	log      *logrus.Entry
}

// NewServer creates the billing server.
func NewServer(pc *platform.Client, provider *Provider, stripe StripeOptions, limiter *ratelimit.Limiter, audit *AuditStore, log *logrus.Entry) *Server {
	return &Server{
		pc:       pc,
		provider: provider,
		stripe:   stripe,
		limiter:  limiter,
		audit:    audit,
		log:      log,
	}
}

// Routes returns the billing router, mounted under /billing.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Post("/orders", s.handleCreateOrder)
	r.Post("/verify", s.handleVerifyPayment)
	r.Get("/subscription", s.handleGetSubscription)
	r.Post("/subscription/cancel", s.handleCancelSubscription)
	r.Post("/checkout", s.handleStripeCheckout)
	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	return r
}

// paymentsRequired answers 503 and reports true when Razorpay keys are not
// configured.
func (s *Server) paymentsRequired(w http.ResponseWriter) bool {
	if s.provider == nil {
		httpapi.WriteError(w, http.StatusServiceUnavailable, "payments_unconfigured",
			"payment provider keys are not configured")
		return true
	}
	return false
}

// stripeRequired answers 503 and reports true when Stripe is not configured.
func (s *Server) stripeRequired(w http.ResponseWriter) bool {
	if s.stripe.SecretKey == "" {
		httpapi.WriteError(w, http.StatusServiceUnavailable, "stripe_unconfigured",
			"Stripe keys are not configured")
		return true
	}
	return false
}

// authenticate resolves the caller's identity or writes the error response.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*platform.Identity, bool) {
	token, ok := httpapi.BearerToken(r)
	if !ok {
		httpapi.WriteError(w, http.StatusUnauthorized, "unauthorized", "bearer token required")
		return nil, false
	}
	identity, err := s.pc.AsUser().Verify(r.Context(), token)
	if err != nil {
		httpapi.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return nil, false
	}
	return identity, true
}
