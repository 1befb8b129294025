package foodgram

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// PruneMedia removes stored images no recipe refers to anymore. Images newer
// than grace are skipped.
func (s *Service) PruneMedia(ctx context.Context, grace time.Duration) (int, error) {
	refs, err := s.db.RecipeImages(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load recipe images: %w", err)
	}
	removed, err := s.images.Prune(refs, grace)
	if err != nil {
		return removed, fmt.Errorf("failed to prune media: %w", err)
	}
	if removed > 0 {
		log.Info("Removed orphaned images", "count", removed)
	}
	return removed, nil
}
