package cmd

import (
	"fmt"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Display row counts of the main tables and the size of the media directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		tables := []struct {
			label string
			model any
		}{
			{"Users", &database.User{}},
			{"Recipes", &database.Recipe{}},
			{"Tags", &database.Tag{}},
			{"Ingredients", &database.Ingredient{}},
			{"Favourites", &database.Favourite{}},
			{"Cart Entries", &database.Cart{}},
			{"Subscriptions", &database.Subscription{}},
		}
		counts := make([]int64, len(tables))

		g, ctx := errgroup.WithContext(cmd.Context())
		for i, t := range tables {
			g.Go(func() (err error) {
				counts[i], err = a.db.Count(ctx, t.model)
				return err
			})
		}
		var mediaSize int64
		g.Go(func() (err error) {
			mediaSize, err = a.images.Size()
			return err
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("failed to collect statistics: %w", err)
		}

		size, err := safecast.Convert[uint64](mediaSize)
		if err != nil {
			return err
		}

		fmt.Println("Database Statistics:")
		for i, t := range tables {
			fmt.Printf("%-15s %s\n", t.label+":", humanize.Comma(counts[i]))
		}
		fmt.Printf("%-15s %s\n", "Media Size:", humanize.Bytes(size))

		usage, err := a.images.DiskUsage(cmd.Context())
		if err != nil {
			log.Warn("could not determine disk usage", "error", err)
			return nil
		}
		fmt.Printf("%-15s %s of %s free (%.1f%% used)\n", "Media Volume:",
			humanize.Bytes(usage.Free), humanize.Bytes(usage.Total), usage.UsedPercent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
