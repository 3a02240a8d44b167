// stripe.go — optional Stripe Checkout path for card-based subscribers.
//
// Razorpay is the primary provider; Stripe is enabled only when its keys are
// configured. On checkout.session.completed the webhook activates the same
// subscription row the Razorpay verify path writes.
package billing

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/reelgate/reelgate/internal/httpapi"
	"github.com/reelgate/reelgate/internal/metrics"
)

// stripePriceID maps a plan to its configured Stripe price.
func (s *Server) stripePriceID(plan string) string {
	switch plan {
	case "monthly":
		return s.stripe.PriceMonthly
	case "yearly":
		return s.stripe.PriceYearly
	default:
		return ""
	}
}

// checkoutRequest is the POST /billing/checkout body.
type checkoutRequest struct {
	Plan string `json:"plan"`
}

// handleStripeCheckout creates a Stripe Checkout session for a plan.
// POST /billing/checkout
func (s *Server) handleStripeCheckout(w http.ResponseWriter, r *http.Request) {
	if s.stripeRequired(w) {
		return
	}
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	priceID := s.stripePriceID(req.Plan)
	if priceID == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_plan", "plan must be monthly or yearly")
		return
	}

	stripe.Key = s.stripe.SecretKey
	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(s.stripe.SuccessBaseURL + "/subscribe/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.stripe.SuccessBaseURL + "/subscribe/cancel"),
		ClientReferenceID: stripe.String(identity.ID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"reelgate_user_id": identity.ID,
				"reelgate_plan":    req.Plan,
			},
		},
	}
	// Session-level copy: the completed-checkout webhook reads the session
	// object, not the subscription.
	params.AddMetadata("reelgate_user_id", identity.ID)
	params.AddMetadata("reelgate_plan", req.Plan)

	sess, err := session.New(params)
	if err != nil {
		s.log.WithError(err).WithField("user_id", identity.ID).Error("checkout session creation failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusBadGateway, "provider_error", "failed to create checkout session")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{
		"checkout_url": sess.URL,
		"session_id":   sess.ID,
	})
}

// handleStripeWebhook activates subscriptions on completed checkouts.
// POST /billing/webhooks/stripe
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if s.stripe.WebhookSecret == "" {
		httpapi.WriteError(w, http.StatusServiceUnavailable, "stripe_unconfigured", "webhook secret not configured")
		return
	}

	const maxBodyBytes = 65536
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httpapi.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}

	// The Stripe account's API version may be newer than the SDK's pinned
	// one; the completed-checkout fields used here are stable across both.
	event, err := webhook.ConstructEventWithOptions(body, r.Header.Get("Stripe-Signature"), s.stripe.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	}

	if event.Type != "checkout.session.completed" {
		// Acknowledged but irrelevant; Stripe retries anything else.
		w.WriteHeader(http.StatusOK)
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_payload", "malformed checkout session payload")
		return
	}

	userID := sess.ClientReferenceID
	plan := "monthly"
	if sess.Metadata != nil {
		if v := sess.Metadata["reelgate_user_id"]; v != "" {
			userID = v
		}
		if v := sess.Metadata["reelgate_plan"]; v != "" {
			plan = v
		}
	}
	if userID == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_payload", "checkout session carries no user reference")
		return
	}

	if _, err := s.activateSubscription(r.Context(), userID, plan); err != nil {
		metrics.PaymentVerifications.WithLabelValues("activation_failed").Inc()
		s.log.WithError(err).WithField("user_id", userID).Error("webhook subscription activation failed")
		sentry.CaptureException(err)
		// Non-2xx so Stripe retries the event.
		httpapi.WriteError(w, http.StatusInternalServerError, "activation_failed", "subscription activation failed")
		return
	}

	metrics.PaymentVerifications.WithLabelValues("verified").Inc()
	w.WriteHeader(http.StatusOK)
}
