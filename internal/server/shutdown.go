package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// GracefulShutdown blocks until ctx is cancelled and then gives the servers
// shutdownTimeout to finish the requests they are handling.
func GracefulShutdown(ctx context.Context, logger *zap.Logger, servers ...*http.Server) error {
	<-ctx.Done()
	logger.Info("Shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.String("addr", srv.Addr), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	logger.Info("Server exiting")
	return firstErr
}
