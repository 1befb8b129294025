package foodgram

import (
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/samber/lo"
)

func (s *ServiceTestSuite) TestIngredientsPrefix() {
	tests := []struct {
		prefix string
		want   []string
	}{
		{prefix: "", want: []string{"egg", "flour", "milk", "sugar"}},
		{prefix: "F", want: []string{"flour"}},
		{prefix: "su", want: []string{"sugar"}},
		{prefix: "lour", want: []string{}},
		{prefix: "%", want: []string{}},
	}

	for _, tt := range tests {
		s.Run(tt.prefix, func() {
			got, err := s.svc.Ingredients(s.ctx, tt.prefix)
			s.Require().NoError(err)
			s.Equal(tt.want, lo.Map(got, func(i database.Ingredient, _ int) string { return i.Name }))
		})
	}
}

func (s *ServiceTestSuite) TestImportCatalog() {
	tags, ings, err := s.svc.ImportCatalog(s.ctx,
		[]TagInput{
			{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
			{Name: "Dessert", Color: "#FFAA00", Slug: "dessert"},
		},
		[]IngredientInput{
			{Name: "flour", MeasurementUnit: "g"},
			{Name: "flour", MeasurementUnit: "kg"},
		},
	)
	s.Require().NoError(err)
	s.EqualValues(1, tags, "existing slugs are skipped")
	s.EqualValues(1, ings, "existing name and unit pairs are skipped")

	// the cached listings see the import
	allTags, err := s.svc.Tags(s.ctx)
	s.Require().NoError(err)
	s.Len(allTags, 4)
	flour, err := s.svc.Ingredients(s.ctx, "fl")
	s.Require().NoError(err)
	s.Len(flour, 2)
}

func (s *ServiceTestSuite) TestImportCatalog_Validation() {
	_, _, err := s.svc.ImportCatalog(s.ctx, []TagInput{{Name: "Bad", Color: "red", Slug: "bad"}}, nil)
	s.requireValidation(err, "tags[0].color")

	_, _, err = s.svc.ImportCatalog(s.ctx, []TagInput{{Name: "Bad", Color: "#123456", Slug: "no spaces"}}, nil)
	s.requireValidation(err, "tags[0].slug")

	_, _, err = s.svc.ImportCatalog(s.ctx, nil, []IngredientInput{{Name: "salt", MeasurementUnit: "bucket"}})
	s.requireValidation(err, "ingredients[0].measurement_unit")

	all, err := s.svc.Ingredients(s.ctx, "salt")
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ServiceTestSuite) TestTagAndIngredientLookup() {
	tag, err := s.svc.Tag(s.ctx, s.tags["lunch"].ID)
	s.Require().NoError(err)
	s.Equal("Lunch", tag.Name)
	s.Equal("#49B64E", tag.Color)

	_, err = s.svc.Tag(s.ctx, 9999)
	s.ErrorIs(err, ErrNotFound)

	ing, err := s.svc.Ingredient(s.ctx, s.ings["milk"].ID)
	s.Require().NoError(err)
	s.EqualValues("ml", ing.MeasurementUnit)

	_, err = s.svc.Ingredient(s.ctx, 9999)
	s.ErrorIs(err, ErrNotFound)
}
