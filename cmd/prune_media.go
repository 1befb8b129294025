package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var pruneMediaCmdFlags struct {
	Grace time.Duration
}

var pruneMediaCmd = &cobra.Command{
	Use:   "prune-media",
	Short: "Remove images no recipe refers to",
	Long: `Remove uploaded images that no recipe refers to anymore. The server does this
periodically, see media.prune_interval.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		grace := a.cfg.Media.PruneGrace
		if cmd.Flags().Changed("grace") {
			grace = pruneMediaCmdFlags.Grace
		}

		removed, err := a.svc.PruneMedia(cmd.Context(), grace)
		if err != nil {
			return fmt.Errorf("failed to prune media: %w", err)
		}
		log.Info("Media pruned", "removed", removed)
		return nil
	},
}

func init() {
	pruneMediaCmd.Flags().DurationVar(&pruneMediaCmdFlags.Grace, "grace", 0, "Keep images younger than this (default: media.prune_grace)")

	rootCmd.AddCommand(pruneMediaCmd)
}
