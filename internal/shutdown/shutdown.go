// Package shutdown provides graceful HTTP server shutdown with connection draining.
package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// GracefulServe starts the HTTP server and blocks until SIGTERM or SIGINT.
// On signal: stops accepting new connections, drains active connections up to
// drainTimeout, then shuts down.
func GracefulServe(srv *http.Server, drainTimeout time.Duration, logger *logrus.Entry) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	logger.WithField("timeout", drainTimeout.String()).Info("draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}
