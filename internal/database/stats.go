package database

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Count returns the number of rows stored for model.
func (c *Client) Count(ctx context.Context, model any) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		log.Error("failed to count rows", "model", fmt.Sprintf("%T", model), "error", err)
		return 0, err
	}
	return count, nil
}
