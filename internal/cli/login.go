package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"resumekit/internal/config"
	"resumekit/internal/errors"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the resume platform",
	Long: `Establish an authenticated session with the resume platform backend.

Credentials can be supplied via flags, read from Vault with --from-vault,
or entered interactively. The session cookie is stored in the configured
cookie jar so subsequent commands reuse it.`,
	RunE: runLogin,
}

var loginFlags struct {
	email     string
	password  string
	fromVault bool
}

func init() {
	loginCmd.Flags().StringVarP(&loginFlags.email, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&loginFlags.password, "password", "p", "", "Account password (prefer the interactive prompt)")
	loginCmd.Flags().BoolVar(&loginFlags.fromVault, "from-vault", false, "Read credentials from the configured Vault path")
}

func runLogin(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	email, password, err := resolveLoginCredentials(cmd)
	if err != nil {
		return err
	}

	store, _, err := newSessionStore(cmd, nil)
	if err != nil {
		return err
	}

	logger.Debug("Logging in", "email", email)
	return store.Login(cmd.Context(), email, password)
}

// resolveLoginCredentials picks the credential source in priority order:
// Vault, flags, interactive prompt.
func resolveLoginCredentials(cmd *cobra.Command) (email, password string, err error) {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if loginFlags.fromVault {
		return config.LoginCredentialsFromVault(cfg, logger)
	}

	email = loginFlags.email
	password = loginFlags.password

	if email == "" {
		email, err = promptLine(cmd, "Email: ")
		if err != nil {
			return "", "", err
		}
	}
	if password == "" {
		password, err = promptPassword(cmd, "Password: ")
		if err != nil {
			return "", "", err
		}
	}

	if email == "" || password == "" {
		return "", "", errors.NewValidationError(
			errors.ErrCodeMissingCredentials,
			"email and password are required",
			nil,
		)
	}
	return email, password, nil
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal, falling back to
// a plain line read when it is not (piped input in scripts and tests).
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(cmd, prompt)
	}

	fmt.Fprint(cmd.OutOrStdout(), prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
