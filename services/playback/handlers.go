// handlers.go — playback HTTP handlers.
package playback

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/reelgate/reelgate/internal/media"
	"github.com/reelgate/reelgate/internal/metrics"
	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/internal/ratelimit"
)

// signRequest is the POST /playback/sign body.
type signRequest struct {
	ContentID string `json:"contentId"`
}

// signResponse is returned on a successful sign (or legacy) outcome.
type signResponse struct {
	SignedURL string `json:"signedUrl"`
	VideoPath string `json:"video_path,omitempty"`
}

// handleSign exchanges a bearer credential and a content id for a
// time-limited signed media URL.
// POST /playback/sign
func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Token first: nothing touches a collaborator before the credential is
	// present and well-formed.
	token, ok := bearerToken(r.Header)
	if !ok {
		s.finish(w, errMissingToken(), start)
		return
	}

	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID == "" {
		metrics.SignRequests.WithLabelValues("missing_content_id").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing contentId"})
		return
	}

	if allowed, retry := s.limiter.CheckSign(r.Context(), ratelimit.ClientIP(r)); !allowed {
		metrics.SignRequests.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
		return
	}

	result, ferr := s.flow.Run(r.Context(), token, req.ContentID)
	if ferr != nil {
		s.finish(w, ferr, start)
		return
	}

	metrics.SignDuration.Observe(time.Since(start).Seconds())
	if result.Legacy {
		metrics.SignRequests.WithLabelValues("legacy_url").Inc()
	} else {
		metrics.SignRequests.WithLabelValues("signed").Inc()
	}

	writeJSON(w, http.StatusOK, signResponse{
		SignedURL: result.SignedURL,
		VideoPath: result.VideoPath,
	})
}

// finish records a flow failure and writes its user-visible form.
func (s *Server) finish(w http.ResponseWriter, e *accessError, start time.Time) {
	metrics.SignRequests.WithLabelValues(e.outcome).Inc()
	metrics.SignDuration.Observe(time.Since(start).Seconds())

	if e.status >= http.StatusInternalServerError {
		// Collaborator payloads go to logs and Sentry, never to the client.
		s.log.WithField("outcome", e.outcome).WithError(e.cause).Error("media access flow failed")
		if e.cause != nil {
			sentry.CaptureException(e.cause)
		}
	}

	writeAccessError(w, e)
}

// handlePublicURL signs a short-lived URL for public content without
// authentication. Only rows marked public are served; everything else is
// refused regardless of credentials.
// GET /playback/public-url?contentId={id}
func (s *Server) handlePublicURL(w http.ResponseWriter, r *http.Request) {
	contentID := r.URL.Query().Get("contentId")
	if contentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "contentId required"})
		return
	}

	svc := s.pc.AsService()
	var content Content
	if err := svc.GetByID(r.Context(), "content", contentID, &content); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Content not found"})
			return
		}
		s.log.WithError(err).Error("public-url content lookup failed")
		sentry.CaptureException(err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	if content.Visibility != "public" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Not allowed"})
		return
	}

	if content.VideoPath == nil || *content.VideoPath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing video_path"})
		return
	}

	key := media.NormalizeKey(s.bucket, *content.VideoPath)
	signed, err := svc.CreateSignedURL(r.Context(), s.bucket, key, s.publicTTL)
	if err != nil {
		s.log.WithError(err).Error("public-url signing failed")
		sentry.CaptureException(err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create signed URL"})
		return
	}

	// Signed links must not end up in shared caches.
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"url": signed})
}
