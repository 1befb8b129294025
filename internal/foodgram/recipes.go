package foodgram

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/jon4hz/foodgram/internal/imagestore"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// IngredientAmount is one (ingredient id, amount) pair of a recipe payload.
type IngredientAmount struct {
	ID     uint    `json:"id" validate:"gt=0"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

// RecipeInput is a recipe write payload. Nil fields were absent from the request:
// they are required on create and kept as they are on update.
type RecipeInput struct {
	Name        *string
	Text        *string
	CookingTime *int
	// Image is a base64 data URI.
	Image       *string
	Tags        []uint
	Ingredients []IngredientAmount
}

// RecipeQuery filters and paginates ListRecipes.
type RecipeQuery struct {
	// Tags are tag slugs. A recipe matches if it carries any of them.
	Tags             []string
	AuthorID         *uint
	IsFavorited      bool
	IsInShoppingCart bool
	Page             Page
}

// recipeFields is the complete state of a recipe after a write, validated as a whole.
type recipeFields struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time" validate:"gte=1,lte=32767"`
	Image       string             `json:"image" validate:"required"`
	Tags        []uint             `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
}

// CreateRecipe publishes a recipe authored by the viewer.
func (s *Service) CreateRecipe(ctx context.Context, viewer *database.User, in RecipeInput) (*RecipeView, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}

	missing := &ValidationError{}
	if in.Name == nil {
		missing.Add("name", "This field is required.")
	}
	if in.CookingTime == nil {
		missing.Add("cooking_time", "This field is required.")
	}
	if in.Image == nil {
		missing.Add("image", "This field is required.")
	}
	if in.Tags == nil {
		missing.Add("tags", "This field is required.")
	}
	if in.Ingredients == nil {
		missing.Add("ingredients", "This field is required.")
	}
	if !missing.Empty() {
		return nil, missing
	}

	fields := recipeFields{
		Name:        *in.Name,
		Text:        lo.FromPtr(in.Text),
		CookingTime: *in.CookingTime,
		Image:       *in.Image,
		Tags:        in.Tags,
		Ingredients: in.Ingredients,
	}
	if verr := validateStruct(&fields); verr != nil {
		return nil, verr
	}

	tags, err := s.resolveTags(ctx, fields.Tags)
	if err != nil {
		return nil, err
	}
	items, err := s.resolveIngredients(ctx, fields.Ingredients)
	if err != nil {
		return nil, err
	}

	image, err := s.saveImage(fields.Image)
	if err != nil {
		return nil, err
	}

	recipe := &database.Recipe{
		AuthorID:    &viewer.ID,
		Name:        fields.Name,
		Text:        fields.Text,
		Image:       image,
		CookingTime: fields.CookingTime,
	}
	if err := s.db.CreateRecipe(ctx, recipe, tags, items); err != nil {
		s.deleteImage(image)
		return nil, err
	}

	log.Info("Recipe created", "recipe_id", recipe.ID, "author_id", viewer.ID)
	s.notifyFollowers(ctx, *viewer, *recipe)
	return s.GetRecipe(ctx, viewer, recipe.ID)
}

// UpdateRecipe applies a partial update. Only the author or an admin may update a recipe.
// Present tags and ingredients replace the previous ones completely.
func (s *Service) UpdateRecipe(ctx context.Context, viewer *database.User, id uint, in RecipeInput) (*RecipeView, error) {
	recipe, err := s.editableRecipe(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	fields := recipeFields{
		Name:        recipe.Name,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		Image:       recipe.Image,
		Tags:        lo.Map(recipe.Tags, func(t database.Tag, _ int) uint { return t.ID }),
		Ingredients: lo.Map(recipe.Ingredients, func(ri database.RecipeIngredient, _ int) IngredientAmount {
			return IngredientAmount{ID: ri.IngredientID, Amount: ri.Amount}
		}),
	}

	updates := map[string]any{}
	if in.Name != nil {
		fields.Name = *in.Name
		updates["name"] = *in.Name
	}
	if in.Text != nil {
		fields.Text = *in.Text
		updates["text"] = *in.Text
	}
	if in.CookingTime != nil {
		fields.CookingTime = *in.CookingTime
		updates["cooking_time"] = *in.CookingTime
	}
	if in.Image != nil {
		fields.Image = *in.Image
	}
	if in.Tags != nil {
		fields.Tags = in.Tags
	}
	if in.Ingredients != nil {
		fields.Ingredients = in.Ingredients
	}
	if verr := validateStruct(&fields); verr != nil {
		return nil, verr
	}

	var tags []database.Tag
	if in.Tags != nil {
		if tags, err = s.resolveTags(ctx, fields.Tags); err != nil {
			return nil, err
		}
	}
	var items []database.RecipeIngredient
	if in.Ingredients != nil {
		if items, err = s.resolveIngredients(ctx, fields.Ingredients); err != nil {
			return nil, err
		}
	}

	var newImage string
	if in.Image != nil {
		if newImage, err = s.saveImage(*in.Image); err != nil {
			return nil, err
		}
		updates["image"] = newImage
	}

	if err := s.db.UpdateRecipe(ctx, id, updates, tags, items); err != nil {
		if newImage != "" {
			s.deleteImage(newImage)
		}
		if database.IsNotFound(err) {
			return nil, notFound("recipe", id)
		}
		return nil, err
	}
	if newImage != "" {
		s.deleteImage(recipe.Image)
	}

	log.Info("Recipe updated", "recipe_id", id, "user_id", viewer.ID)
	return s.GetRecipe(ctx, viewer, id)
}

// DeleteRecipe removes a recipe and its image. Only the author or an admin may delete it.
func (s *Service) DeleteRecipe(ctx context.Context, viewer *database.User, id uint) error {
	recipe, err := s.editableRecipe(ctx, viewer, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteRecipe(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return notFound("recipe", id)
		}
		return err
	}
	s.deleteImage(recipe.Image)

	log.Info("Recipe deleted", "recipe_id", id, "user_id", viewer.ID)
	return nil
}

// GetRecipe returns a single recipe as seen by the viewer.
func (s *Service) GetRecipe(ctx context.Context, viewer *database.User, id uint) (*RecipeView, error) {
	recipe, err := s.db.GetRecipeByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, notFound("recipe", id)
		}
		return nil, err
	}
	views, err := s.recipeViews(ctx, viewer, []database.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns a page of recipes, newest first. The favourite and cart
// filters only apply to authenticated viewers; for anonymous viewers they
// match nothing.
func (s *Service) ListRecipes(ctx context.Context, viewer *database.User, q RecipeQuery) ([]RecipeView, int64, error) {
	filter := database.RecipeFilter{
		TagSlugs: lo.Uniq(lo.Compact(q.Tags)),
		AuthorID: q.AuthorID,
		Limit:    q.Page.Limit,
		Offset:   q.Page.Offset,
	}
	if q.IsFavorited || q.IsInShoppingCart {
		if viewer == nil {
			return []RecipeView{}, 0, nil
		}
		if q.IsFavorited {
			filter.FavoritedBy = &viewer.ID
		}
		if q.IsInShoppingCart {
			filter.InCartOf = &viewer.ID
		}
	}

	recipes, total, err := s.db.ListRecipes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.recipeViews(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *Service) editableRecipe(ctx context.Context, viewer *database.User, id uint) (*database.Recipe, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	recipe, err := s.db.GetRecipeByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, notFound("recipe", id)
		}
		return nil, err
	}
	if !canEdit(viewer, recipe) {
		return nil, ErrForbidden
	}
	return recipe, nil
}

func canEdit(viewer *database.User, recipe *database.Recipe) bool {
	if viewer.IsAdmin() {
		return true
	}
	return recipe.AuthorID != nil && *recipe.AuthorID == viewer.ID
}

// resolveTags loads the tags of a payload. Unknown ids are a not-found error.
func (s *Service) resolveTags(ctx context.Context, ids []uint) ([]database.Tag, error) {
	tags, err := s.db.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		found := lo.SliceToMap(tags, func(t database.Tag) (uint, bool) { return t.ID, true })
		missing, _ := lo.Find(ids, func(id uint) bool { return !found[id] })
		return nil, notFound("tag", missing)
	}
	return tags, nil
}

// resolveIngredients turns payload pairs into join rows. Unknown ids are a not-found error.
func (s *Service) resolveIngredients(ctx context.Context, amounts []IngredientAmount) ([]database.RecipeIngredient, error) {
	ids := lo.Map(amounts, func(a IngredientAmount, _ int) uint { return a.ID })
	ingredients, err := s.db.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(ingredients) != len(ids) {
		found := lo.SliceToMap(ingredients, func(i database.Ingredient) (uint, bool) { return i.ID, true })
		missing, _ := lo.Find(ids, func(id uint) bool { return !found[id] })
		return nil, notFound("ingredient", missing)
	}
	return lo.Map(amounts, func(a IngredientAmount, _ int) database.RecipeIngredient {
		return database.RecipeIngredient{IngredientID: a.ID, Amount: a.Amount}
	}), nil
}

func (s *Service) saveImage(dataURI string) (string, error) {
	ref, err := s.images.SaveDataURI(dataURI)
	if err != nil {
		if errors.Is(err, imagestore.ErrInvalidImage) {
			return "", newValidationError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		}
		return "", err
	}
	return ref, nil
}

func (s *Service) deleteImage(ref string) {
	if err := s.images.Delete(ref); err != nil {
		log.Error("failed to delete recipe image", "image", ref, "error", err)
	}
}

// recipeViews resolves the viewer dependent flags of a batch of recipes with
// one query per flag.
func (s *Service) recipeViews(ctx context.Context, viewer *database.User, recipes []database.Recipe) ([]RecipeView, error) {
	favourited := map[uint]bool{}
	inCart := map[uint]bool{}
	subscribed := map[uint]bool{}

	if viewer != nil && len(recipes) > 0 {
		recipeIDs := lo.Map(recipes, func(r database.Recipe, _ int) uint { return r.ID })
		authorIDs := lo.Uniq(lo.FilterMap(recipes, func(r database.Recipe, _ int) (uint, bool) {
			return lo.FromPtr(r.AuthorID), r.AuthorID != nil
		}))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			favourited, err = s.db.FavouritedRecipeIDs(gctx, viewer.ID, recipeIDs)
			return err
		})
		g.Go(func() (err error) {
			inCart, err = s.db.CartRecipeIDs(gctx, viewer.ID, recipeIDs)
			return err
		})
		g.Go(func() (err error) {
			subscribed, err = s.db.SubscribedAuthorIDs(gctx, viewer.ID, authorIDs)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return lo.Map(recipes, func(r database.Recipe, _ int) RecipeView {
		view := RecipeView{
			Recipe:           r,
			IsFavorited:      favourited[r.ID],
			IsInShoppingCart: inCart[r.ID],
		}
		if r.Author != nil {
			view.Author = &Profile{
				User:         *r.Author,
				IsSubscribed: subscribed[r.Author.ID],
				Avatar:       s.avatar(r.Author),
			}
		}
		return view
	}), nil
}
