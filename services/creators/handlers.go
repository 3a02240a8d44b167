// handlers.go — creator application and moderation handlers.
package creators

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"github.com/reelgate/reelgate/internal/httpapi"
	"github.com/reelgate/reelgate/internal/platform"
)

// Creator is the application row, keyed by user id. status is pending,
// approved, or rejected.
type Creator struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// applyRequest is the POST /creators/apply body.
type applyRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

// handleApply files (or re-files, after a rejection) a creator application.
// POST /creators/apply
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid_request", "display_name required")
		return
	}

	// An approved application never goes back to pending.
	var existing Creator
	err := s.pc.AsService().GetByID(r.Context(), "creators", identity.ID, &existing)
	if err == nil && existing.Status == "approved" {
		httpapi.WriteError(w, http.StatusConflict, "already_approved", "already an approved creator")
		return
	}
	if err != nil && !errors.Is(err, platform.ErrNotFound) {
		s.log.WithError(err).Error("creator lookup failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load application")
		return
	}

	app := Creator{
		ID:          identity.ID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Status:      "pending",
	}
	if err := s.pc.AsService().Upsert(r.Context(), "creators", "id", app); err != nil {
		s.log.WithError(err).WithField("user_id", identity.ID).Error("application write failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to file application")
		return
	}

	httpapi.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

// handleMe returns the caller's application state.
// GET /creators/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var app Creator
	err := s.pc.AsService().GetByID(r.Context(), "creators", identity.ID, &app)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "none"})
			return
		}
		s.log.WithError(err).Error("creator lookup failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load application")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, app)
}

// ── Admin: creator applications ───────────────────────────────────────────────

// handleListApplications lists applications by status (default pending).
// GET /creators/admin/creators?status=pending
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "pending"
	}

	params := url.Values{}
	params.Set("status", "eq."+status)
	params.Set("select", "*")
	params.Set("order", "created_at.asc")

	var rows []Creator
	if err := s.pc.AsService().Query(r.Context(), "creators", params, &rows); err != nil {
		s.log.WithError(err).Error("application listing failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to list applications")
		return
	}
	if rows == nil {
		rows = []Creator{}
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"creators": rows})
}

// handleApproveCreator approves an application and grants the creator role.
// POST /creators/admin/creators/{userID}/approve
func (s *Server) handleApproveCreator(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if !s.setCreatorStatus(w, r, userID, "approved") {
		return
	}

	// Role change is what unlocks the upload surface.
	params := url.Values{}
	params.Set("id", "eq."+userID)
	if err := s.pc.AsService().Update(r.Context(), "profiles", params, map[string]any{"role": "creator"}); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("role grant failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error",
			"application approved but role grant failed")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// handleRejectCreator rejects an application.
// POST /creators/admin/creators/{userID}/reject
func (s *Server) handleRejectCreator(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !s.setCreatorStatus(w, r, userID, "rejected") {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// setCreatorStatus updates one application row; reports false after writing
// an error response.
func (s *Server) setCreatorStatus(w http.ResponseWriter, r *http.Request, userID, status string) bool {
	var app Creator
	if err := s.pc.AsService().GetByID(r.Context(), "creators", userID, &app); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "not_found", "application not found")
			return false
		}
		s.log.WithError(err).Error("creator lookup failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load application")
		return false
	}

	params := url.Values{}
	params.Set("id", "eq."+userID)
	if err := s.pc.AsService().Update(r.Context(), "creators", params, map[string]any{"status": status}); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("status update failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to update application")
		return false
	}
	return true
}

// ── Admin: content moderation ─────────────────────────────────────────────────

// moderatedContent is the subset of the content row moderation needs.
type moderatedContent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatorID string    `json:"creator_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// handleListPendingContent lists content awaiting moderation.
// GET /creators/admin/content?status=pending
func (s *Server) handleListPendingContent(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "pending"
	}

	params := url.Values{}
	params.Set("status", "eq."+status)
	params.Set("select", "id,title,creator_id,status,created_at")
	params.Set("order", "created_at.asc")

	var rows []moderatedContent
	if err := s.pc.AsService().Query(r.Context(), "content", params, &rows); err != nil {
		s.log.WithError(err).Error("content listing failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to list content")
		return
	}
	if rows == nil {
		rows = []moderatedContent{}
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"content": rows})
}

// handleApproveContent publishes a content row.
// POST /creators/admin/content/{contentID}/approve
func (s *Server) handleApproveContent(w http.ResponseWriter, r *http.Request) {
	s.setContentStatus(w, r, chi.URLParam(r, "contentID"), "approved")
}

// handleRejectContent rejects a content row.
// POST /creators/admin/content/{contentID}/reject
func (s *Server) handleRejectContent(w http.ResponseWriter, r *http.Request) {
	s.setContentStatus(w, r, chi.URLParam(r, "contentID"), "rejected")
}

func (s *Server) setContentStatus(w http.ResponseWriter, r *http.Request, contentID, status string) {
	var row moderatedContent
	if err := s.pc.AsService().GetByID(r.Context(), "content", contentID, &row); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "not_found", "content not found")
			return
		}
		s.log.WithError(err).Error("content lookup failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load content")
		return
	}

	params := url.Values{}
	params.Set("id", "eq."+contentID)
	if err := s.pc.AsService().Update(r.Context(), "content", params, map[string]any{"status": status}); err != nil {
		s.log.WithError(err).WithField("content_id", contentID).Error("moderation update failed")
		sentry.CaptureException(err)
		httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to update content")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}
