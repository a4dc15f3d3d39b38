package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumekit/internal/observability"
)

// Start runs the gateway until ctx is canceled or the listener fails. The
// session is discovered before the listener opens so the guard has settled
// state for the first request.
func (s *Server) Start(ctx context.Context) error {
	m, err := observability.NewManager(&s.AppConfig.Observability, s.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer s.shutdownObservability(m)

	if s.RoutesWatcher != nil {
		if err := s.RoutesWatcher.Start(); err != nil {
			return fmt.Errorf("failed to start routes watcher: %w", err)
		}
		defer s.RoutesWatcher.Stop()
	}

	discoveryStart := time.Now()
	s.Store.FetchCurrentSession(ctx)
	snap := s.Store.Snapshot()
	m.GetMetrics().RecordSessionOperation(ctx, "fetch_current_session", nil, time.Since(discoveryStart))
	s.Logger.Info("Session discovery completed",
		"authenticated", snap.Authenticated())

	httpServer := s.buildHTTPServer(m)
	return s.serveWithGracefulShutdown(ctx, httpServer)
}

// buildHTTPServer assembles the gateway's HTTP server
func (s *Server) buildHTTPServer(m *observability.Manager) *http.Server {
	mux := s.setupRoutes(m)
	handler := m.HTTPMiddleware()(mux)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// serveWithGracefulShutdown starts the listener and drains it when ctx ends
func (s *Server) serveWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting gateway",
			"address", server.Addr,
			"backend", s.AuthClient.BaseURL().String(),
			"login_path", s.Table.LoginPath())

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("gateway failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Shutdown requested, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown drains in-flight requests and releases resources
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}

	s.Logger.Info("Shutting down gateway...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown gateway gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Gateway shutdown completed successfully")
	return nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(m *observability.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}
