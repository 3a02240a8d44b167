// server.go — creators service: applications, creator profile, moderation.
package creators

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/httpapi"
	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/pkg/logging"
)

// Server holds the creators service dependencies.
type Server struct {
	pc  *platform.Client
	log *logrus.Entry
}

// NewServer creates the creators server.
func NewServer(pc *platform.Client, log *logrus.Entry) *Server {
	return &Server{pc: pc, log: log}
}

// Routes returns the creators router, mounted under /creators. Admin
// endpoints live under /creators/admin and require the admin role.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Post("/apply", s.handleApply)
	r.Get("/me", s.handleMe)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/creators", s.handleListApplications)
		r.Post("/creators/{userID}/approve", s.handleApproveCreator)
		r.Post("/creators/{userID}/reject", s.handleRejectCreator)
		r.Get("/content", s.handleListPendingContent)
		r.Post("/content/{contentID}/approve", s.handleApproveContent)
		r.Post("/content/{contentID}/reject", s.handleRejectContent)
	})

	return r
}

// profile is the managed-backend profiles row; role drives authorization.
type profile struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// requireAdmin verifies the caller's token and checks their profile role.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := s.authenticate(w, r)
		if !ok {
			return
		}

		var p profile
		err := s.pc.AsService().GetByID(r.Context(), "profiles", identity.ID, &p)
		if err != nil && !errors.Is(err, platform.ErrNotFound) {
			s.log.WithError(err).Error("profile lookup failed")
			httpapi.WriteError(w, http.StatusInternalServerError, "upstream_error", "failed to load profile")
			return
		}
		if p.Role != "admin" {
			httpapi.WriteError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}

		s.log.WithFields(map[string]any{
			"admin_id":    identity.ID,
			"admin_email": logging.RedactEmail(identity.Email),
			"path":        r.URL.Path,
		}).Info("admin action")
		next.ServeHTTP(w, r)
	})
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
