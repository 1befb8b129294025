package foodgram

import (
	"context"
	"fmt"

	"github.com/jon4hz/foodgram/internal/cache"
	"github.com/jon4hz/foodgram/internal/database"
)

// TagInput is one entry of a tag catalog import.
type TagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// IngredientInput is one entry of an ingredient catalog import.
type IngredientInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,unit"`
}

type catalogImport struct {
	Tags        []TagInput        `json:"tags" validate:"dive"`
	Ingredients []IngredientInput `json:"ingredients" validate:"dive"`
}

// Tags returns every tag ordered by id.
func (s *Service) Tags(ctx context.Context) ([]database.Tag, error) {
	if s.catalog != nil {
		return s.catalog.Tags(ctx, s.db.GetTags)
	}
	return s.db.GetTags(ctx)
}

// Tag returns a single tag.
func (s *Service) Tag(ctx context.Context, id uint) (*database.Tag, error) {
	tag, err := s.db.GetTagByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, notFound("tag", id)
		}
		return nil, err
	}
	return tag, nil
}

// Ingredients returns the catalog ingredients whose name starts with prefix, ignoring case.
func (s *Service) Ingredients(ctx context.Context, prefix string) ([]database.Ingredient, error) {
	load := func(ctx context.Context) ([]database.Ingredient, error) {
		return s.db.GetIngredients(ctx, prefix)
	}
	if s.catalog != nil {
		return s.catalog.Ingredients(ctx, prefix, load)
	}
	return load(ctx)
}

// Ingredient returns a single catalog ingredient.
func (s *Service) Ingredient(ctx context.Context, id uint) (*database.Ingredient, error) {
	ingredient, err := s.db.GetIngredientByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, notFound("ingredient", id)
		}
		return nil, err
	}
	return ingredient, nil
}

// ImportCatalog adds tags and ingredients to the catalogs. Entries that already
// exist (same slug, same name and unit) are skipped. It returns the number of
// tags and ingredients actually added.
func (s *Service) ImportCatalog(ctx context.Context, tags []TagInput, ingredients []IngredientInput) (int64, int64, error) {
	if verr := validateStruct(&catalogImport{Tags: tags, Ingredients: ingredients}); verr != nil {
		return 0, 0, verr
	}

	tagRows := make([]database.Tag, len(tags))
	for i, t := range tags {
		tagRows[i] = database.Tag{Name: t.Name, Color: t.Color, Slug: t.Slug}
	}
	ingredientRows := make([]database.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		ingredientRows[i] = database.Ingredient{Name: ing.Name, MeasurementUnit: database.MeasurementUnit(ing.MeasurementUnit)}
	}

	addedTags, err := s.db.CreateTags(ctx, tagRows)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to import tags: %w", err)
	}
	addedIngredients, err := s.db.CreateIngredients(ctx, ingredientRows)
	if err != nil {
		return addedTags, 0, fmt.Errorf("failed to import ingredients: %w", err)
	}

	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	return addedTags, addedIngredients, nil
}

// CatalogStats returns the counters of the catalog cache, nil without a cache.
func (s *Service) CatalogStats() *cache.Stats {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Stats()
}
