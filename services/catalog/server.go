// server.go — catalog service: content listing, detail, views, trending.
package catalog

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/internal/ratelimit"
)

// viewDedupWindow is how long a repeat view by the same user for the same
// content counts as the same view.
const viewDedupWindow = 30 * time.Minute

// Server holds the catalog service dependencies.
type Server struct {
	pc      *platform.Client
	limiter *ratelimit.Limiter
	views   *ViewStore
	log     *logrus.Entry
}

// NewServer creates the catalog server.
func NewServer(pc *platform.Client, limiter *ratelimit.Limiter, views *ViewStore, log *logrus.Entry) *Server {
	return &Server{pc: pc, limiter: limiter, views: views, log: log}
}

// Routes returns the catalog router, mounted under /catalog.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/", s.handleList)
	r.Get("/trending", s.handleTrending)
	r.Get("/{contentID}", s.handleGet)
	r.Post("/views", s.handleRecordView)

	return r
}
