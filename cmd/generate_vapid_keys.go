package cmd

import (
	"fmt"

	"github.com/jon4hz/foodgram/internal/notify/webpush"
	"github.com/spf13/cobra"
)

var generateKeysCmd = &cobra.Command{
	Use:   "generate-vapid-keys",
	Short: "Generate VAPID keys for push notifications",
	Long: `Generate VAPID keys for browser push notifications about new recipes.
Add the generated keys to the webpush section of your configuration file.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("failed to generate VAPID keys: %w", err)
		}

		fmt.Println("webpush:")
		fmt.Println("  enabled: true")
		fmt.Println("  vapid_email: \"admin@example.com\"")
		fmt.Printf("  private_key: \"%s\"\n", privateKey)
		fmt.Printf("  public_key: \"%s\"\n", publicKey)
		fmt.Println()
		fmt.Println("Keep the private key secret.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateKeysCmd)
}
