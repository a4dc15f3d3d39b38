package cli

import (
	"fmt"

	"resumekit/internal/config"
	"resumekit/internal/guard"
	"resumekit/internal/notify"
	"resumekit/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local authenticated gateway",
	Long: `Start a local HTTP gateway that guards every route against the current
session. Requests to public routes and authenticated requests are proxied to
the backend with the session cookie attached; everything else is redirected
to the login path.

Available endpoints:
- GET /gateway/health: Gateway health and session status
- GET /gateway/stats: Gateway statistics and rate limiting info
- everything else: guarded and proxied to the backend`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("routes-file", "", "File of public routes to watch (overrides config)")
}

// applyServeOverrides folds command-line flags into the gateway config.
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) {
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Gateway.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Gateway.Host = host
	}
	if routesFile, _ := cmd.Flags().GetString("routes-file"); routesFile != "" {
		cfg.Gateway.RoutesFile = routesFile
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeOverrides(cmd, cfg)

	// The gateway has no interactive user; notifications go to the log.
	store, client, err := newSessionStore(cmd, notify.NewLogNotifier(logger))
	if err != nil {
		return err
	}

	table := guard.NewTable(cfg.Gateway.PublicRoutes, cfg.Gateway.LoginPath)
	srv := server.NewServer(cfg, Version, store, client, table, logger)

	if err := srv.Start(cmd.Context()); err != nil {
		return fmt.Errorf("gateway exited: %w", err)
	}
	return nil
}
