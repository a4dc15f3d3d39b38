package cli

import (
	"encoding/json"
	"fmt"

	"resumekit/internal/notify"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session identity",
	Long: `Ask the backend who the stored session cookie belongs to. Prints the
identity when a session is active and exits non-zero when there is none.`,
	RunE: runWhoami,
}

var whoamiJSON bool

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Print the identity as JSON")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	// Discovery is silent: no notifications either way.
	store, _, err := newSessionStore(cmd, &notify.Recorder{})
	if err != nil {
		return err
	}

	store.FetchCurrentSession(cmd.Context())
	snap := store.Snapshot()
	if !snap.Authenticated() {
		return fmt.Errorf("not logged in")
	}

	out := cmd.OutOrStdout()
	if whoamiJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.User)
	}

	fmt.Fprintf(out, "Logged in as %s (%s)\n", snap.User.Username, snap.User.Email)
	if snap.User.DisplayName != "" {
		fmt.Fprintf(out, "Display name: %s\n", snap.User.DisplayName)
	}
	if snap.User.Role != "" {
		fmt.Fprintf(out, "Role:         %s\n", snap.User.Role)
	}
	if snap.User.Plan != "" {
		fmt.Fprintf(out, "Plan:         %s\n", snap.User.Plan)
	}
	return nil
}
