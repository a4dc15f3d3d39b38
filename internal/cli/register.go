package cli

import (
	"resumekit/internal/errors"
	"resumekit/internal/identity"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the resume platform",
	Long: `Create a new account and immediately log in with the same credentials,
so a successful registration leaves an authenticated session behind.`,
	RunE: runRegister,
}

var registerFlags struct {
	email       string
	password    string
	username    string
	displayName string
	plan        string
}

func init() {
	registerCmd.Flags().StringVarP(&registerFlags.email, "email", "e", "", "Account email")
	registerCmd.Flags().StringVarP(&registerFlags.password, "password", "p", "", "Account password (prefer the interactive prompt)")
	registerCmd.Flags().StringVarP(&registerFlags.username, "username", "u", "", "Account username")
	registerCmd.Flags().String("display-name", "", "Display name shown on the profile")
	registerCmd.Flags().String("plan", "", "Subscription plan to register with")
}

func runRegister(cmd *cobra.Command, args []string) error {
	draft, err := buildRegistrationDraft(cmd)
	if err != nil {
		return err
	}

	store, _, err := newSessionStore(cmd, nil)
	if err != nil {
		return err
	}

	return store.Register(cmd.Context(), draft)
}

func buildRegistrationDraft(cmd *cobra.Command) (identity.RegistrationDraft, error) {
	var err error

	email := registerFlags.email
	if email == "" {
		if email, err = promptLine(cmd, "Email: "); err != nil {
			return identity.RegistrationDraft{}, err
		}
	}

	username := registerFlags.username
	if username == "" {
		if username, err = promptLine(cmd, "Username: "); err != nil {
			return identity.RegistrationDraft{}, err
		}
	}

	password := registerFlags.password
	if password == "" {
		if password, err = promptPassword(cmd, "Password: "); err != nil {
			return identity.RegistrationDraft{}, err
		}
	}

	if email == "" || username == "" || password == "" {
		return identity.RegistrationDraft{}, errors.NewValidationError(
			errors.ErrCodeMissingCredentials,
			"email, username, and password are required",
			nil,
		)
	}

	displayName, _ := cmd.Flags().GetString("display-name")
	plan, _ := cmd.Flags().GetString("plan")

	return identity.RegistrationDraft{
		Email:       email,
		Password:    password,
		Username:    username,
		DisplayName: displayName,
		Plan:        plan,
	}, nil
}
