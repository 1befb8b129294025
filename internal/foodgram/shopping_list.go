package foodgram

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jon4hz/foodgram/internal/database"
)

// ShoppingList aggregates the ingredients of every recipe in the viewer's cart.
func (s *Service) ShoppingList(ctx context.Context, viewer *database.User) ([]database.ShoppingListItem, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	return s.db.GetShoppingList(ctx, viewer.ID)
}

// RenderShoppingList formats a shopping list as plain text, one
// "<name>(<unit>) - <total>" line per ingredient. An empty list renders as "".
func RenderShoppingList(items []database.ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s(%s) - %s\n", item.Name, item.MeasurementUnit, formatAmount(item.Total))
	}
	return b.String()
}

// formatAmount prints without trailing zeros and hides float summation noise.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
