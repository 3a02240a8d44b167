// handlers_subscription.go — subscription state for the authenticated caller.
package billing

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/reelgate/reelgate/internal/httpapi"
)

// Subscription is the row kept in the managed backend, one per user.
type Subscription struct {
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
}

// activateSubscription upserts the caller's subscription row, keyed on
// user_id, with a fresh expiry from now. Renewal before expiry restarts the
// clock rather than stacking.
func (s *Server) activateSubscription(ctx context.Context, userID, plan string) (time.Time, error) {
	expiresAt := time.Now().Add(planDuration(plan))
	err := s.pc.AsService().Upsert(ctx, "subscriptions", "user_id", Subscription{
		UserID:    userID,
		Plan:      plan,
		Active:    true,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

// handleGetSubscription returns the caller's subscription state. The
// "active" field is the effective state: an expired row reads as inactive,
// same as no row at all.
// GET /billing/subscription
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	params := url.Values{}
	params.Set("user_id", "eq."+identity.ID)
	params.Set("select", "*")
	params.Set("limit", "1")

	var rows []Subscription
	if err := s.pc.AsService().Query(r.Context(), "subscriptions", params, &rows); err != nil {
		s.log.WithError(err).Error("subscription lookup failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load subscription")
		return
	}

	if len(rows) == 0 {
		httpapi.WriteJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	sub := rows[0]
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"active":     sub.Active && time.Now().Before(sub.ExpiresAt),
		"plan":       sub.Plan,
		"expires_at": sub.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// handleCancelSubscription deactivates the caller's subscription. The row
// stays for history; only the active flag flips.
// POST /billing/subscription/cancel
func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	params := url.Values{}
	params.Set("user_id", "eq."+identity.ID)

	err := s.pc.AsService().Update(r.Context(), "subscriptions", params, map[string]any{
		"active":     false,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", identity.ID).Error("subscription cancel failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to cancel subscription")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"active": false})
}
