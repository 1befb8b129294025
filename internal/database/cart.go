package database

import "context"

// Cart marks a recipe whose ingredients go onto the user's shopping list.
type Cart struct {
	Model
	UserID   uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	User     User   `gorm:"constraint:OnDelete:CASCADE;"`
	RecipeID uint   `gorm:"not null;index;uniqueIndex:idx_cart_user_recipe"`
	Recipe   Recipe `gorm:"constraint:OnDelete:CASCADE;"`
}

// AddToCart puts a recipe into the user's cart. It returns ErrAlreadyExists
// when the recipe was already there.
func (c *Client) AddToCart(ctx context.Context, userID, recipeID uint) error {
	return c.insertOrIgnore(ctx, &Cart{UserID: userID, RecipeID: recipeID}, "user_id", "recipe_id")
}

// RemoveFromCart takes a recipe out of the cart if present.
func (c *Client) RemoveFromCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	return c.deletePair(ctx, &Cart{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

// CartRecipeIDs returns the subset of recipeIDs that are in the user's cart.
func (c *Client) CartRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return c.recipeIDSet(ctx, &Cart{}, userID, recipeIDs)
}
