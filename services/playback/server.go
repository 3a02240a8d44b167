// server.go — playback service: signed access to private and public media.
package playback

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/internal/ratelimit"
)

// Server holds the playback service dependencies.
type Server struct {
	pc        *platform.Client
	flow      *Flow
	limiter   *ratelimit.Limiter
	log       *logrus.Entry
	bucket    string
	publicTTL time.Duration
}

// NewServer creates the playback server. Private media is signed for signTTL
// (one hour in production — players cache the URL for up to that long);
// public media for publicTTL.
func NewServer(pc *platform.Client, limiter *ratelimit.Limiter, bucket string, signTTL, publicTTL time.Duration, log *logrus.Entry) *Server {
	return &Server{
		pc:        pc,
		flow:      NewFlow(pc, bucket, signTTL, log),
		limiter:   limiter,
		log:       log,
		bucket:    bucket,
		publicTTL: publicTTL,
	}
}

// Routes returns the playback router, mounted under /playback.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Post("/sign", s.handleSign)
	r.Get("/public-url", s.handlePublicURL)

	return r
}
