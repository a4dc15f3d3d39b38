package cli

import (
	"context"
	"fmt"

	"resumekit/internal/authapi"
	"resumekit/internal/config"
	"resumekit/internal/errors"
	"resumekit/internal/notify"
	"resumekit/internal/session"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumekit",
	Short: "A CLI and local gateway for the resume platform session",
	Long: `Resumekit manages an authenticated session against the resume platform
backend. It can log in, register, and log out from the command line, and it
can run a local gateway that guards routes against the current session and
proxies allowed requests to the backend with the session cookie attached.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// newSessionStore wires the backend client and a session store for a command.
// Interactive commands report outcomes on the command's own streams so they
// read like normal CLI output rather than log lines.
func newSessionStore(cmd *cobra.Command, notifier notify.Notifier) (*session.Store, *authapi.Client, error) {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	client, err := authapi.NewClient(&cfg.Backend, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	if notifier == nil {
		notifier = notify.NewConsoleNotifier(cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	return session.NewStore(client, notifier, logger), client, nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
