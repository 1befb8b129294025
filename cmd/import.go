package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/foodgram"
	"github.com/spf13/cobra"
)

var importCmdFlags struct {
	Ingredients string
	Tags        string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the ingredient and tag catalogs",
	Long: `Import ingredients and tags from JSON files. Entries that already exist are skipped,
so an import can safely be run again.

ingredients.json: [{"name": "flour", "measurement_unit": "g"}, ...]
tags.json:        [{"name": "Breakfast", "color": "#E26C2D", "slug": "breakfast"}, ...]`,
	Example: `foodgram import --ingredients data/ingredients.json --tags data/tags.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if importCmdFlags.Ingredients == "" && importCmdFlags.Tags == "" {
			return errors.New("nothing to import, pass --ingredients and/or --tags")
		}

		var ingredients []foodgram.IngredientInput
		if err := readJSONFile(importCmdFlags.Ingredients, &ingredients); err != nil {
			return err
		}
		var tags []foodgram.TagInput
		if err := readJSONFile(importCmdFlags.Tags, &tags); err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		addedTags, addedIngredients, err := a.svc.ImportCatalog(cmd.Context(), tags, ingredients)
		if err != nil {
			return fmt.Errorf("failed to import catalog: %w", err)
		}

		log.Info("Catalog imported",
			"tags_added", addedTags, "tags_skipped", int64(len(tags))-addedTags,
			"ingredients_added", addedIngredients, "ingredients_skipped", int64(len(ingredients))-addedIngredients)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCmdFlags.Ingredients, "ingredients", "", "Path to an ingredients JSON file")
	importCmd.Flags().StringVar(&importCmdFlags.Tags, "tags", "", "Path to a tags JSON file")

	rootCmd.AddCommand(importCmd)
}

// readJSONFile decodes path into dst. An empty path is a no-op.
func readJSONFile(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
