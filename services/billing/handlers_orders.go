// handlers_orders.go — Razorpay order creation and payment verification.
package billing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/reelgate/reelgate/internal/httpapi"
	"github.com/reelgate/reelgate/internal/metrics"
	"github.com/reelgate/reelgate/internal/ratelimit"
)

// orderRequest is the POST /billing/orders body.
type orderRequest struct {
	Plan string `json:"plan"` // "monthly" or "yearly"
}

// orderResponse hands the client everything its checkout widget needs.
type orderResponse struct {
	Order *Order `json:"order"`
	KeyID string `json:"keyId"`
}

// handleCreateOrder creates a payment order for a plan.
// POST /billing/orders
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if s.paymentsRequired(w) {
		return
	}
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	if allowed, retry := s.limiter.CheckOrder(r.Context(), ratelimit.ClientIP(r)); !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		httpapi.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many orders")
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	amount := planAmount(req.Plan)
	if amount == 0 {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_plan", "plan must be monthly or yearly")
		return
	}

	receipt := fmt.Sprintf("rg-%s-%d", req.Plan, time.Now().Unix())
	order, err := s.provider.CreateOrder(r.Context(), amount, "INR", receipt)
	if err != nil {
		s.log.WithError(err).WithField("user_id", identity.ID).Error("order creation failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusBadGateway, "provider_error", "failed to create payment order")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, orderResponse{Order: order, KeyID: s.provider.KeyID()})
}

// verifyRequest is the POST /billing/verify body. Field names follow the
// checkout callback payload.
type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Plan      string `json:"plan"`
}

// handleVerifyPayment checks the checkout signature and, when genuine,
// activates the caller's subscription.
// POST /billing/verify
func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	if s.paymentsRequired(w) {
		return
	}
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_request",
			"razorpay_order_id, razorpay_payment_id and razorpay_signature required")
		return
	}
	amount := planAmount(req.Plan)
	if amount == 0 {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_plan", "plan must be monthly or yearly")
		return
	}

	if !s.provider.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		if err := s.audit.Record(r.Context(), identity.ID, req.OrderID, req.PaymentID, req.Plan, amount, "rejected"); err != nil {
			s.log.WithError(err).Error("audit write failed")
		}
		s.log.WithFields(map[string]any{
			"user_id":  identity.ID,
			"order_id": req.OrderID,
		}).Warn("payment signature rejected")
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_signature", "payment signature verification failed")
		return
	}

	expiresAt, err := s.activateSubscription(r.Context(), identity.ID, req.Plan)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("activation_failed").Inc()
		s.log.WithError(err).WithField("user_id", identity.ID).Error("subscription activation failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "activation_failed",
			"payment verified but subscription activation failed")
		return
	}

	metrics.PaymentVerifications.WithLabelValues("verified").Inc()
	if err := s.audit.Record(r.Context(), identity.ID, req.OrderID, req.PaymentID, req.Plan, amount, "verified"); err != nil {
		s.log.WithError(err).Error("audit write failed")
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"active":     true,
		"plan":       req.Plan,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}
