package cli

import (
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Long: `Ask the backend to end the current session. The local session state is
cleared only when the server acknowledges the logout; on failure the session
is kept so local state never disagrees with the server.`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, _, err := newSessionStore(cmd, nil)
	if err != nil {
		return err
	}

	// The outcome is reported through the notifier; a rejected logout is not
	// an error exit because the session is still intact.
	store.Logout(cmd.Context())
	return nil
}
