package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Run serves srv until ctx is cancelled, then gives in-flight requests up to
// shutdownTimeout to finish.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("SERVER: Listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		slog.Info("SERVER: Shutting down", "cause", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("SERVER: Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				slog.Error("SERVER: Error killing server", "error", err)
			}
			return err
		}
		slog.Info("SERVER: Stopped")
		return nil
	}
}
