package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/foodgram"
	"github.com/spf13/cobra"
)

var createUserCmdFlags struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	Admin     bool
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Long: `Create a user account. Admins may edit and delete every recipe.
The password is read from --password or the FOODGRAM_PASSWORD environment variable.`,
	Example: `foodgram create-user --email admin@example.com --username admin --first-name Ada --last-name Admin --admin`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		password := createUserCmdFlags.Password
		if password == "" {
			password = os.Getenv("FOODGRAM_PASSWORD")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		profile, err := a.svc.CreateUser(cmd.Context(), foodgram.RegisterInput{
			Email:     createUserCmdFlags.Email,
			Username:  createUserCmdFlags.Username,
			FirstName: createUserCmdFlags.FirstName,
			LastName:  createUserCmdFlags.LastName,
			Password:  password,
		}, createUserCmdFlags.Admin)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		log.Info("User created", "id", profile.User.ID, "username", profile.User.Username, "admin", profile.User.IsAdmin())
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserCmdFlags.Email, "email", "", "Email address used to log in")
	createUserCmd.Flags().StringVar(&createUserCmdFlags.Username, "username", "", "Unique user name")
	createUserCmd.Flags().StringVar(&createUserCmdFlags.FirstName, "first-name", "", "First name")
	createUserCmd.Flags().StringVar(&createUserCmdFlags.LastName, "last-name", "", "Last name")
	createUserCmd.Flags().StringVar(&createUserCmdFlags.Password, "password", "", "Password (default: $FOODGRAM_PASSWORD)")
	createUserCmd.Flags().BoolVar(&createUserCmdFlags.Admin, "admin", false, "Grant staff and superuser rights")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(createUserCmd)
}
