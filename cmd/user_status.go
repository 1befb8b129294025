package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/foodgram"
	"github.com/spf13/cobra"
)

var userStatusCmdFlags struct {
	Email   string
	Disable bool
	Enable  bool
}

var userStatusCmd = &cobra.Command{
	Use:   "user-status",
	Short: "Enable or disable a user account",
	Long: `Enable or disable a user account. Disabled users cannot log in, their API
token is revoked and open browser sessions end with the next request.`,
	Example: `foodgram user-status --email spam@example.com --disable`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userStatusCmdFlags.Disable == userStatusCmdFlags.Enable {
			return errors.New("pass exactly one of --enable and --disable")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		user, err := a.svc.SetUserActive(cmd.Context(), userStatusCmdFlags.Email, userStatusCmdFlags.Enable)
		if err != nil {
			if errors.Is(err, foodgram.ErrNotFound) {
				return fmt.Errorf("no user with email %s", userStatusCmdFlags.Email)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		log.Info("User updated", "id", user.ID, "username", user.Username, "active", user.IsActive)
		return nil
	},
}

func init() {
	userStatusCmd.Flags().StringVar(&userStatusCmdFlags.Email, "email", "", "Email address of the account")
	userStatusCmd.Flags().BoolVar(&userStatusCmdFlags.Disable, "disable", false, "Disable the account")
	userStatusCmd.Flags().BoolVar(&userStatusCmdFlags.Enable, "enable", false, "Enable the account")
	_ = userStatusCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(userStatusCmd)
}
