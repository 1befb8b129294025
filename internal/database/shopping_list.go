package database

import (
	"context"

	"github.com/charmbracelet/log"
)

// ShoppingListItem is one aggregated line of a shopping list.
type ShoppingListItem struct {
	IngredientID    uint
	Name            string
	MeasurementUnit MeasurementUnit
	Total           float64
}

// GetShoppingList sums the ingredient amounts of every recipe in the user's
// cart. Rows are grouped by ingredient id, so the same name measured in another
// unit stays a separate line.
func (c *Client) GetShoppingList(ctx context.Context, userID uint) ([]ShoppingListItem, error) {
	inCart := c.db.Model(&Cart{}).Select("recipe_id").Where("user_id = ?", userID)

	var items []ShoppingListItem
	err := c.db.WithContext(ctx).
		Model(&RecipeIngredient{}).
		Select("ingredients.id AS ingredient_id, ingredients.name AS name, "+
			"ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN (?)", inCart).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Order("ingredients.id").
		Scan(&items).Error
	if err != nil {
		log.Error("failed to build shopping list", "error", err)
		return nil, err
	}
	return items, nil
}
