package server

import (
	"time"

	"resumekit/internal/authapi"
	"resumekit/internal/config"
	resumekitErrors "resumekit/internal/errors"
	"resumekit/internal/guard"
	"resumekit/internal/session"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server is the local authenticated gateway. Every request path passes
// through the route guard against the live session snapshot; blocked
// requests are redirected to the login entry point, allowed requests are
// reverse-proxied to the backend with the session cookie attached.
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Session state and backend access
	Store      *session.Store
	AuthClient *authapi.Client

	// Route guard
	Table         *guard.Table
	RoutesWatcher *guard.Watcher

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	// Logger
	Logger *resumekitErrors.Logger
}

// NewServer creates a gateway from the application configuration.
func NewServer(appCfg *config.Config, version string, store *session.Store, client *authapi.Client, table *guard.Table, logger *resumekitErrors.Logger) *Server {
	gw := appCfg.Gateway

	var rateLimiter *LimiterManager
	if gw.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			gw.RateLimit.RequestsPerMin,
			gw.RateLimit.BurstCapacity,
			logger,
		)
	}

	var watcher *guard.Watcher
	if gw.RoutesFile != "" {
		watcher = guard.NewWatcher(gw.RoutesFile, table, time.Second, logger)
	}

	return &Server{
		Host:          gw.Host,
		Port:          gw.Port,
		Version:       version,
		AppConfig:     appCfg,
		Store:         store,
		AuthClient:    client,
		Table:         table,
		RoutesWatcher: watcher,
		ReadTimeout:   gw.ReadTimeout,
		WriteTimeout:  gw.WriteTimeout,
		IdleTimeout:   gw.IdleTimeout,
		RateLimit:     &gw.RateLimit,
		RateLimiter:   rateLimiter,
		Logger:        logger,
	}
}
