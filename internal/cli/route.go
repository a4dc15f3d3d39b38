package cli

import (
	"fmt"

	"resumekit/internal/guard"
	"resumekit/internal/notify"

	"github.com/spf13/cobra"
)

var routeCmd = &cobra.Command{
	Use:   "route [path]",
	Short: "Evaluate the route guard for a path",
	Long: `Evaluate the configured route guard against the current session state
and print the decision: allow, or redirect with its target. Useful for
checking which paths the gateway would let through right now.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute,
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())

	store, _, err := newSessionStore(cmd, &notify.Recorder{})
	if err != nil {
		return err
	}
	store.FetchCurrentSession(cmd.Context())

	table := guard.NewTable(cfg.Gateway.PublicRoutes, cfg.Gateway.LoginPath)
	decision := guard.Evaluate(args[0], store.Snapshot(), table)

	out := cmd.OutOrStdout()
	if decision.Allowed() {
		fmt.Fprintf(out, "allow %s\n", guard.NormalizePath(args[0]))
		return nil
	}
	fmt.Fprintf(out, "redirect %s -> %s\n", guard.NormalizePath(args[0]), decision.RedirectTo)
	return nil
}
