// handlers.go — catalog HTTP handlers.
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"github.com/reelgate/reelgate/internal/httpapi"
	"github.com/reelgate/reelgate/internal/metrics"
	"github.com/reelgate/reelgate/internal/platform"
)

// Content is the public catalog row. Storage keys stay out of catalog
// responses; playback hands out media access.
type Content struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsFree       bool      `json:"is_free"`
	Visibility   string    `json:"visibility"`
	Status       string    `json:"status"`
	CreatorID    string    `json:"creator_id"`
	CreatedAt    time.Time `json:"created_at"`
}

const contentColumns = "id,title,description,thumbnail_url,is_free,visibility,status,creator_id,created_at"

// handleList returns approved content, newest first.
// GET /catalog?limit=50
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 50, 1, 100)

	params := url.Values{}
	params.Set("status", "eq.approved")
	params.Set("select", contentColumns)
	params.Set("order", "created_at.desc")
	params.Set("limit", strconv.Itoa(limit))

	var rows []Content
	if err := s.pc.AsService().Query(r.Context(), "content", params, &rows); err != nil {
		s.log.WithError(err).Error("content listing failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load catalog")
		return
	}
	if rows == nil {
		rows = []Content{}
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"content": rows})
}

// handleGet returns one approved content row.
// GET /catalog/{contentID}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")

	var row Content
	err := s.pc.AsService().GetByID(r.Context(), "content", contentID, &row)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "not_found", "content not found")
			return
		}
		s.log.WithError(err).Error("content lookup failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load content")
		return
	}

	// Unapproved rows are visible only through the creator and admin surfaces.
	if row.Status != "approved" {
		httpapi.WriteError(w, http.StatusNotFound, "not_found", "content not found")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, row)
}

// viewRequest is the POST /catalog/views body.
type viewRequest struct {
	ContentID string `json:"contentId"`
}

// handleRecordView records one view event for the authenticated caller.
// Repeat views of the same content within viewDedupWindow are counted once.
// POST /catalog/views
func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	token, ok := httpapi.BearerToken(r)
	if !ok {
		httpapi.WriteError(w, http.StatusUnauthorized, "unauthorized", "bearer token required")
		return
	}

	identity, err := s.pc.AsUser().Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, platform.ErrUnauthorized) {
			httpapi.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		s.log.WithError(err).Error("identity verification failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "identity check failed")
		return
	}

	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_request", "contentId required")
		return
	}

	if allowed, retry := s.limiter.CheckView(r.Context(), identity.ID); !allowed {
		metrics.ViewEvents.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		httpapi.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many view events")
		return
	}

	var row Content
	if err := s.pc.AsService().GetByID(r.Context(), "content", req.ContentID, &row); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "not_found", "content not found")
			return
		}
		s.log.WithError(err).Error("content lookup failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load content")
		return
	}

	dedupKey := "view:" + identity.ID + ":" + req.ContentID
	if !s.limiter.MarkOnce(r.Context(), dedupKey, viewDedupWindow) {
		metrics.ViewEvents.WithLabelValues("deduped").Inc()
		httpapi.WriteJSON(w, http.StatusOK, map[string]bool{"recorded": false})
		return
	}

	if err := s.views.Record(r.Context(), req.ContentID, identity.ID); err != nil {
		metrics.ViewEvents.WithLabelValues("error").Inc()
		s.log.WithError(err).Error("view insert failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "storage_error", "failed to record view")
		return
	}

	metrics.ViewEvents.WithLabelValues("recorded").Inc()
	httpapi.WriteJSON(w, http.StatusOK, map[string]bool{"recorded": true})
}

// handleTrending returns the most-viewed content over a recent window.
// GET /catalog/trending?days=7&limit=10
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", 7, 1, 30)
	limit := intParam(r, "limit", 10, 1, 50)

	rows, err := s.views.Trending(r.Context(), days, limit)
	if err != nil {
		s.log.WithError(err).Error("trending aggregation failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "storage_error", "failed to load trending")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"days":     days,
		"trending": rows,
	})
}

// intParam reads a bounded integer query parameter.
func intParam(r *http.Request, name string, def, min, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return def
	}
	if n > max {
		return max
	}
	return n
}
