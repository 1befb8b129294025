package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recipe is a dish published by an author. The author reference is weak:
// recipes survive the removal of their author with a NULL author.
type Recipe struct {
	Model
	AuthorID    *uint              `gorm:"index"`
	Author      *User              `gorm:"constraint:OnDelete:SET NULL;"`
	Name        string             `gorm:"size:200;not null"`
	Text        string             `gorm:"type:text"`
	Image       string             `gorm:"not null"`
	CookingTime int                `gorm:"not null;check:cooking_time >= 1"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE;"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE;"`
}

// RecipeIngredient is the amount of one catalog ingredient used by a recipe.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;index;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE;"`
	Amount       float64    `gorm:"not null;check:amount > 0"`
}

// RecipeFilter restricts ListRecipes. Zero values mean "no restriction".
type RecipeFilter struct {
	// TagSlugs matches recipes carrying at least one of the tags.
	TagSlugs []string
	AuthorID *uint
	// FavoritedBy matches recipes favorited by this user.
	FavoritedBy *uint
	// InCartOf matches recipes in the shopping cart of this user.
	InCartOf *uint
	Limit    int
	Offset   int
}

func (c *Client) preloadRecipe(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// CreateRecipe stores a recipe with its tag set and ingredient rows in one transaction.
func (c *Client) CreateRecipe(ctx context.Context, recipe *Recipe, tags []Tag, items []RecipeIngredient) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
				return err
			}
		}
		return createRecipeIngredients(tx, recipe.ID, items)
	})
	if err != nil {
		log.Error("failed to create recipe", "error", err)
		return err
	}
	return nil
}

// UpdateRecipe applies field updates to a recipe. A non-nil tags slice replaces the
// tag set and a non-nil items slice replaces every ingredient row. Everything
// happens in one transaction so a failure leaves the previous recipe intact.
func (c *Client) UpdateRecipe(ctx context.Context, id uint, fields map[string]any, tags []Tag, items []RecipeIngredient) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe := Recipe{Model: Model{ID: id}}
		if len(fields) > 0 {
			result := tx.Model(&recipe).Updates(fields)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		if tags != nil {
			if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		if items != nil {
			if err := tx.Where("recipe_id = ?", id).Delete(&RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := createRecipeIngredients(tx, id, items); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !IsNotFound(err) {
			log.Error("failed to update recipe", "error", err)
		}
		return err
	}
	return nil
}

func createRecipeIngredients(tx *gorm.DB, recipeID uint, items []RecipeIngredient) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		}
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

// DeleteRecipe removes a recipe together with every row that depends on it.
func (c *Client) DeleteRecipe(ctx context.Context, id uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []any{&RecipeIngredient{}, &Favourite{}, &Cart{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		recipe := Recipe{Model: Model{ID: id}}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&recipe)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if !IsNotFound(err) {
			log.Error("failed to delete recipe", "error", err)
		}
		return err
	}
	return nil
}

// GetRecipeByID loads a recipe with author, tags and ingredients.
func (c *Client) GetRecipeByID(ctx context.Context, id uint) (*Recipe, error) {
	var recipe Recipe
	if err := c.preloadRecipe(c.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if !IsNotFound(err) {
			log.Error("failed to get recipe by ID", "error", err)
		}
		return nil, err
	}
	return &recipe, nil
}

// RecipeExists reports whether a recipe with the given id exists.
func (c *Client) RecipeExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		log.Error("failed to check recipe", "error", err)
		return false, err
	}
	return count > 0, nil
}

// ListRecipes returns one page of recipes matching the filter, newest first,
// together with the total number of matches.
func (c *Client) ListRecipes(ctx context.Context, f RecipeFilter) ([]Recipe, int64, error) {
	tx := c.db.WithContext(ctx).Model(&Recipe{})

	if len(f.TagSlugs) > 0 {
		tagged := c.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		tx = tx.Where("recipes.id IN (?)", tagged)
	}
	if f.AuthorID != nil {
		tx = tx.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if f.FavoritedBy != nil {
		tx = tx.Where("recipes.id IN (?)", c.db.Model(&Favourite{}).Select("recipe_id").Where("user_id = ?", *f.FavoritedBy))
	}
	if f.InCartOf != nil {
		tx = tx.Where("recipes.id IN (?)", c.db.Model(&Cart{}).Select("recipe_id").Where("user_id = ?", *f.InCartOf))
	}

	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		log.Error("failed to count recipes", "error", err)
		return nil, 0, err
	}

	var recipes []Recipe
	err := c.preloadRecipe(tx).
		Order("recipes.created_at DESC").
		Order("recipes.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&recipes).Error
	if err != nil {
		log.Error("failed to list recipes", "error", err)
		return nil, 0, err
	}
	return recipes, total, nil
}

// GetRecipesByAuthor returns the newest recipes of an author. A negative limit
// returns all of them.
func (c *Client) GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]Recipe, error) {
	var recipes []Recipe
	err := c.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		log.Error("failed to get recipes by author", "error", err)
		return nil, err
	}
	return recipes, nil
}

// CountRecipesByAuthors returns the number of recipes per author id.
func (c *Client) CountRecipesByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := c.db.WithContext(ctx).
		Model(&Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		log.Error("failed to count recipes by author", "error", err)
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

// RecipeImages returns the stored image reference of every recipe.
func (c *Client) RecipeImages(ctx context.Context) ([]string, error) {
	var images []string
	if err := c.db.WithContext(ctx).Model(&Recipe{}).Pluck("image", &images).Error; err != nil {
		log.Error("failed to get recipe images", "error", err)
		return nil, err
	}
	return images, nil
}
