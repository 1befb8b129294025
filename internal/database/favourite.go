package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/clause"
)

// Favourite bookmarks a recipe for a user.
type Favourite struct {
	Model
	UserID   uint   `gorm:"not null;uniqueIndex:idx_favourite_user_recipe"`
	User     User   `gorm:"constraint:OnDelete:CASCADE;"`
	RecipeID uint   `gorm:"not null;index;uniqueIndex:idx_favourite_user_recipe"`
	Recipe   Recipe `gorm:"constraint:OnDelete:CASCADE;"`
}

// AddFavourite bookmarks a recipe. It returns ErrAlreadyExists when the pair was
// already present, including when a concurrent request inserted it first.
func (c *Client) AddFavourite(ctx context.Context, userID, recipeID uint) error {
	return c.insertOrIgnore(ctx, &Favourite{UserID: userID, RecipeID: recipeID}, "user_id", "recipe_id")
}

// RemoveFavourite deletes the bookmark if present. The returned bool reports
// whether a row was removed.
func (c *Client) RemoveFavourite(ctx context.Context, userID, recipeID uint) (bool, error) {
	return c.deletePair(ctx, &Favourite{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

// FavouritedRecipeIDs returns the subset of recipeIDs the user has bookmarked.
func (c *Client) FavouritedRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return c.recipeIDSet(ctx, &Favourite{}, userID, recipeIDs)
}

// insertOrIgnore inserts a relationship row with ON CONFLICT DO NOTHING on the
// given unique columns. Zero affected rows or a unique violation both mean the
// row already existed.
func (c *Client) insertOrIgnore(ctx context.Context, row any, conflictColumns ...string) error {
	columns := make([]clause.Column, len(conflictColumns))
	for i, name := range conflictColumns {
		columns[i] = clause.Column{Name: name}
	}

	result := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: columns, DoNothing: true}).
		Omit(clause.Associations).
		Create(row)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return ErrAlreadyExists
		}
		if !IsForeignKeyViolation(result.Error) {
			log.Error("failed to insert relationship", "error", result.Error)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (c *Client) deletePair(ctx context.Context, model any, query string, args ...any) (bool, error) {
	result := c.db.WithContext(ctx).Where(query, args...).Delete(model)
	if result.Error != nil {
		log.Error("failed to delete relationship", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (c *Client) recipeIDSet(ctx context.Context, model any, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := c.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		log.Error("failed to look up recipe relationships", "error", err)
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
