// flow.go — the private media access sequence.
//
// One invocation per request, strictly top to bottom:
//
//	bearer token → identity → entitlement → locate & sign
//
// Each step may end the request with a terminal accessError. The flow holds
// no per-request state between invocations; overlapping requests cannot
// interfere. Identity verification runs on the anon tier with the caller's
// own token; everything after it runs on the service-role tier, because
// row-level policies may hide the content or subscription row from the
// caller's credential.
package playback

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/media"
	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/pkg/logging"
)

// Content is the catalog row shape read by the flow.
type Content struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	IsFree     bool    `json:"is_free"`
	Visibility string  `json:"visibility"`
	Status     string  `json:"status"`
	VideoPath  *string `json:"video_path"`
	VideoURL   *string `json:"video_url"`
}

// Subscription is the row consulted for premium entitlement.
type Subscription struct {
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignResult is the successful outcome of the flow.
type SignResult struct {
	SignedURL string
	VideoPath string // normalized storage key; empty on the legacy branch
	Legacy    bool   // true when the stored absolute URL was served unsigned
}

// Flow executes the media access sequence. Construct once; safe for
// concurrent use.
type Flow struct {
	pc      *platform.Client
	bucket  string
	signTTL time.Duration
	now     func() time.Time
	log     *logrus.Entry
}

// NewFlow creates a Flow signing URLs in the given bucket with the given
// lifetime.
func NewFlow(pc *platform.Client, bucket string, signTTL time.Duration, log *logrus.Entry) *Flow {
	return &Flow{
		pc:      pc,
		bucket:  bucket,
		signTTL: signTTL,
		now:     time.Now,
		log:     log,
	}
}

// bearerToken extracts the credential from an Authorization header.
// Header name lookup is case-insensitive; the "Bearer " prefix is not.
func bearerToken(h http.Header) (string, bool) {
	v := h.Get("Authorization")
	if !strings.HasPrefix(v, "Bearer ") {
		return "", false
	}
	tok := strings.TrimPrefix(v, "Bearer ")
	if tok == "" {
		return "", false
	}
	return tok, true
}

// subscriptionActive reports whether a subscription row grants entitlement at
// the given instant. A nil row never does.
func subscriptionActive(sub *Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if !sub.Active {
		return false
	}
	return now.Before(sub.ExpiresAt)
}

// Run executes the flow for one request.
func (f *Flow) Run(ctx context.Context, token, contentID string) (*SignResult, *accessError) {
	// 1) Resolve the caller's identity from the token.
	identity, err := f.pc.AsUser().Verify(ctx, token)
	if err != nil {
		if errors.Is(err, platform.ErrUnauthorized) {
			f.log.WithField("token", logging.RedactToken(token)).Debug("token rejected")
			return nil, errInvalidToken()
		}
		return nil, errUpstream(err)
	}

	// 2) Load the content row (service role — visible regardless of the
	// caller's row-level access).
	svc := f.pc.AsService()
	var content Content
	if err := svc.GetByID(ctx, "content", contentID, &content); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, errContentNotFound()
		}
		return nil, errUpstream(err)
	}

	// 3) Premium content requires an effective-active subscription. Free
	// content never triggers a subscription lookup.
	if !content.IsFree {
		sub, err := f.lookupSubscription(ctx, identity.ID)
		if err != nil {
			return nil, errUpstream(err)
		}
		if !subscriptionActive(sub, f.now()) {
			return nil, errSubscriptionInactive()
		}
	}

	// 4) Locate the media and sign.
	if content.VideoPath == nil || *content.VideoPath == "" {
		// Legacy rows carry a public absolute URL instead of a storage key;
		// serve it directly, no signing.
		if content.VideoURL != nil && *content.VideoURL != "" {
			return &SignResult{SignedURL: *content.VideoURL, Legacy: true}, nil
		}
		return nil, errMissingVideoPath()
	}

	key := media.NormalizeKey(f.bucket, *content.VideoPath)

	// Existence probe first: a missing object is the client's data problem
	// (404 with the normalized path), a sign failure is ours (500).
	exists, err := svc.ObjectExists(ctx, f.bucket, key)
	if err != nil {
		return nil, errSignFailed(key, err)
	}
	if !exists {
		return nil, errMediaNotFound(key)
	}

	signed, err := svc.CreateSignedURL(ctx, f.bucket, key, f.signTTL)
	if err != nil {
		return nil, errSignFailed(key, err)
	}

	return &SignResult{SignedURL: signed, VideoPath: key}, nil
}

// lookupSubscription returns the caller's subscription row, or nil when none
// exists.
func (f *Flow) lookupSubscription(ctx context.Context, userID string) (*Subscription, error) {
	params := url.Values{}
	params.Set("user_id", "eq."+userID)
	params.Set("select", "*")
	params.Set("limit", "1")

	var rows []Subscription
	if err := f.pc.AsService().Query(ctx, "subscriptions", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
