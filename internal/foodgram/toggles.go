package foodgram

import (
	"context"
	"errors"

	"github.com/jon4hz/foodgram/internal/database"
)

// AddFavorite bookmarks a recipe for the viewer. Favoriting an already
// favorited recipe succeeds with Created=false.
func (s *Service) AddFavorite(ctx context.Context, viewer *database.User, recipeID uint) (*database.Recipe, ToggleResult, error) {
	return s.addRecipeRelation(ctx, viewer, recipeID, s.db.AddFavourite)
}

// RemoveFavorite drops the bookmark. Removing a missing bookmark succeeds.
func (s *Service) RemoveFavorite(ctx context.Context, viewer *database.User, recipeID uint) error {
	return s.removeRecipeRelation(ctx, viewer, recipeID, s.db.RemoveFavourite)
}

// AddToCart puts a recipe into the viewer's shopping cart. Adding a recipe
// that is already in the cart succeeds with Created=false.
func (s *Service) AddToCart(ctx context.Context, viewer *database.User, recipeID uint) (*database.Recipe, ToggleResult, error) {
	return s.addRecipeRelation(ctx, viewer, recipeID, s.db.AddToCart)
}

// RemoveFromCart takes a recipe out of the cart. Removing a recipe that is not in the cart succeeds.
func (s *Service) RemoveFromCart(ctx context.Context, viewer *database.User, recipeID uint) error {
	return s.removeRecipeRelation(ctx, viewer, recipeID, s.db.RemoveFromCart)
}

func (s *Service) addRecipeRelation(
	ctx context.Context,
	viewer *database.User,
	recipeID uint,
	add func(ctx context.Context, userID, recipeID uint) error,
) (*database.Recipe, ToggleResult, error) {
	if err := requireUser(viewer); err != nil {
		return nil, ToggleResult{}, err
	}
	recipe, err := s.db.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ToggleResult{}, notFound("recipe", recipeID)
		}
		return nil, ToggleResult{}, err
	}

	result, err := toggleAdd(add(ctx, viewer.ID, recipeID))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			// deleted between the lookup and the insert
			return nil, ToggleResult{}, notFound("recipe", recipeID)
		}
		return nil, ToggleResult{}, err
	}
	return recipe, result, nil
}

func (s *Service) removeRecipeRelation(
	ctx context.Context,
	viewer *database.User,
	recipeID uint,
	remove func(ctx context.Context, userID, recipeID uint) (bool, error),
) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	exists, err := s.db.RecipeExists(ctx, recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("recipe", recipeID)
	}
	_, err = remove(ctx, viewer.ID, recipeID)
	return err
}

// toggleAdd maps the result of an insert-or-ignore to a ToggleResult.
func toggleAdd(err error) (ToggleResult, error) {
	switch {
	case err == nil:
		return ToggleResult{Created: true}, nil
	case errors.Is(err, database.ErrAlreadyExists), database.IsUniqueViolation(err):
		return ToggleResult{Created: false}, nil
	default:
		return ToggleResult{}, err
	}
}
