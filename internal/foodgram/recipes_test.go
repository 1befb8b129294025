package foodgram

import (
	"os"
	"path/filepath"

	"github.com/jon4hz/foodgram/internal/database"
	"github.com/samber/lo"
)

func (s *ServiceTestSuite) TestCreateRecipe() {
	author := s.register("chef")

	view, err := s.svc.CreateRecipe(s.ctx, author, s.recipeInput("pancakes", []string{"breakfast", "lunch"}, map[string]float64{"flour": 200, "milk": 300}))
	s.Require().NoError(err)

	s.Equal("pancakes", view.Recipe.Name)
	s.Equal(15, view.Recipe.CookingTime)
	s.Require().NotNil(view.Author)
	s.Equal("chef", view.Author.User.Username)
	s.False(view.Author.IsSubscribed)
	s.NotEmpty(view.Author.Avatar)
	s.Len(view.Recipe.Tags, 2)
	s.Len(view.Recipe.Ingredients, 2)
	s.False(view.IsFavorited)
	s.False(view.IsInShoppingCart)

	_, err = os.Stat(filepath.Join(s.mediaFS, filepath.FromSlash(view.Recipe.Image)))
	s.NoError(err, "image must be stored")
}

func (s *ServiceTestSuite) TestCreateRecipe_CookingTimeBoundary() {
	author := s.register("chef")

	in := s.recipeInput("instant", []string{"breakfast"}, map[string]float64{"egg": 1})
	in.CookingTime = lo.ToPtr(0)
	_, err := s.svc.CreateRecipe(s.ctx, author, in)
	s.requireValidation(err, "cooking_time")
	s.Zero(s.countRows(&database.Recipe{}))

	in.CookingTime = lo.ToPtr(1)
	_, err = s.svc.CreateRecipe(s.ctx, author, in)
	s.Require().NoError(err)
	s.EqualValues(1, s.countRows(&database.Recipe{}))
}

func (s *ServiceTestSuite) TestCreateRecipe_Validation() {
	author := s.register("chef")

	tests := []struct {
		name   string
		mutate func(in *RecipeInput)
		field  string
	}{
		{name: "missing name", mutate: func(in *RecipeInput) { in.Name = nil }, field: "name"},
		{name: "name too long", mutate: func(in *RecipeInput) { in.Name = lo.ToPtr(string(make([]byte, 201))) }, field: "name"},
		{name: "missing image", mutate: func(in *RecipeInput) { in.Image = nil }, field: "image"},
		{name: "broken image", mutate: func(in *RecipeInput) { in.Image = lo.ToPtr("data:image/png;base64,AAAA") }, field: "image"},
		{name: "missing tags", mutate: func(in *RecipeInput) { in.Tags = nil }, field: "tags"},
		{name: "empty tags", mutate: func(in *RecipeInput) { in.Tags = []uint{} }, field: "tags"},
		{name: "duplicate tags", mutate: func(in *RecipeInput) { in.Tags = []uint{in.Tags[0], in.Tags[0]} }, field: "tags"},
		{name: "empty ingredients", mutate: func(in *RecipeInput) { in.Ingredients = []IngredientAmount{} }, field: "ingredients"},
		{name: "duplicate ingredients", mutate: func(in *RecipeInput) {
			in.Ingredients = []IngredientAmount{in.Ingredients[0], in.Ingredients[0]}
		}, field: "ingredients"},
		{name: "zero amount", mutate: func(in *RecipeInput) { in.Ingredients[0].Amount = 0 }, field: "ingredients[0].amount"},
		{name: "negative amount", mutate: func(in *RecipeInput) { in.Ingredients[0].Amount = -1 }, field: "ingredients[0].amount"},
		{name: "negative cooking time", mutate: func(in *RecipeInput) { in.CookingTime = lo.ToPtr(-5) }, field: "cooking_time"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := s.recipeInput("cake", []string{"breakfast"}, map[string]float64{"flour": 100})
			tt.mutate(&in)
			_, err := s.svc.CreateRecipe(s.ctx, author, in)
			s.requireValidation(err, tt.field)
		})
	}

	s.Zero(s.countRows(&database.Recipe{}), "no partial writes")
	entries, err := os.ReadDir(filepath.Join(s.mediaFS, "recipes"))
	s.Require().NoError(err)
	s.Empty(entries, "rejected recipes leave no images behind")
}

func (s *ServiceTestSuite) TestCreateRecipe_UnknownReferences() {
	author := s.register("chef")

	in := s.recipeInput("cake", []string{"breakfast"}, map[string]float64{"flour": 100})
	in.Tags = append(in.Tags, 9999)
	_, err := s.svc.CreateRecipe(s.ctx, author, in)
	s.ErrorIs(err, ErrNotFound)

	in = s.recipeInput("cake", []string{"breakfast"}, map[string]float64{"flour": 100})
	in.Ingredients = append(in.Ingredients, IngredientAmount{ID: 9999, Amount: 1})
	_, err = s.svc.CreateRecipe(s.ctx, author, in)
	s.ErrorIs(err, ErrNotFound)

	s.Zero(s.countRows(&database.Recipe{}))
}

func (s *ServiceTestSuite) TestCreateRecipe_RequiresUser() {
	_, err := s.svc.CreateRecipe(s.ctx, nil, s.recipeInput("cake", []string{"breakfast"}, map[string]float64{"flour": 1}))
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ServiceTestSuite) TestUpdateRecipe_ReplacesIngredients() {
	author := s.register("chef")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 2, "sugar": 3})

	updated, err := s.svc.UpdateRecipe(s.ctx, author, view.Recipe.ID, RecipeInput{
		Ingredients: []IngredientAmount{{ID: s.ings["flour"].ID, Amount: 5}},
	})
	s.Require().NoError(err)

	s.Require().Len(updated.Recipe.Ingredients, 1)
	s.Equal(s.ings["flour"].ID, updated.Recipe.Ingredients[0].IngredientID)
	s.InDelta(5, updated.Recipe.Ingredients[0].Amount, 1e-9)
	s.EqualValues(1, s.countRows(&database.RecipeIngredient{}))

	// absent fields are kept
	s.Equal("cake", updated.Recipe.Name)
	s.Equal(view.Recipe.Image, updated.Recipe.Image)
	s.Len(updated.Recipe.Tags, 1)
}

func (s *ServiceTestSuite) TestUpdateRecipe_FieldsTagsAndImage() {
	author := s.register("chef")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 2})
	oldImage := filepath.Join(s.mediaFS, filepath.FromSlash(view.Recipe.Image))

	updated, err := s.svc.UpdateRecipe(s.ctx, author, view.Recipe.ID, RecipeInput{
		Name:        lo.ToPtr("better cake"),
		CookingTime: lo.ToPtr(90),
		Image:       lo.ToPtr(s.png),
		Tags:        []uint{s.tags["dinner"].ID, s.tags["lunch"].ID},
	})
	s.Require().NoError(err)

	s.Equal("better cake", updated.Recipe.Name)
	s.Equal(90, updated.Recipe.CookingTime)
	s.ElementsMatch([]string{"dinner", "lunch"}, lo.Map(updated.Recipe.Tags, func(t database.Tag, _ int) string { return t.Slug }))
	s.NotEqual(view.Recipe.Image, updated.Recipe.Image)

	_, err = os.Stat(oldImage)
	s.True(os.IsNotExist(err), "replaced image is removed")
}

func (s *ServiceTestSuite) TestUpdateRecipe_InvalidLeavesRecipeIntact() {
	author := s.register("chef")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 2, "sugar": 3})

	_, err := s.svc.UpdateRecipe(s.ctx, author, view.Recipe.ID, RecipeInput{
		Name:        lo.ToPtr("changed"),
		Ingredients: []IngredientAmount{{ID: s.ings["egg"].ID, Amount: 0}},
	})
	s.requireValidation(err, "ingredients[0].amount")

	_, err = s.svc.UpdateRecipe(s.ctx, author, view.Recipe.ID, RecipeInput{
		Name:        lo.ToPtr("changed"),
		Ingredients: []IngredientAmount{{ID: 4242, Amount: 1}},
	})
	s.ErrorIs(err, ErrNotFound)

	got, err := s.svc.GetRecipe(s.ctx, nil, view.Recipe.ID)
	s.Require().NoError(err)
	s.Equal("cake", got.Recipe.Name)
	s.Len(got.Recipe.Ingredients, 2)
}

func (s *ServiceTestSuite) TestRecipePermissions() {
	author := s.register("chef")
	other := s.register("other")
	admin := s.register("admin")
	admin.IsStaff = true

	view := s.createRecipe(author, "cake", map[string]float64{"flour": 2})

	_, err := s.svc.UpdateRecipe(s.ctx, other, view.Recipe.ID, RecipeInput{Name: lo.ToPtr("mine now")})
	s.ErrorIs(err, ErrForbidden)
	s.ErrorIs(s.svc.DeleteRecipe(s.ctx, other, view.Recipe.ID), ErrForbidden)
	s.ErrorIs(s.svc.DeleteRecipe(s.ctx, nil, view.Recipe.ID), ErrUnauthorized)

	// permission is checked before the payload
	_, err = s.svc.UpdateRecipe(s.ctx, other, view.Recipe.ID, RecipeInput{CookingTime: lo.ToPtr(0)})
	s.ErrorIs(err, ErrForbidden)

	updated, err := s.svc.UpdateRecipe(s.ctx, admin, view.Recipe.ID, RecipeInput{Name: lo.ToPtr("moderated")})
	s.Require().NoError(err)
	s.Equal("moderated", updated.Recipe.Name)
	s.Equal(author.ID, *updated.Recipe.AuthorID, "editing never changes the author")

	s.Require().NoError(s.svc.DeleteRecipe(s.ctx, author, view.Recipe.ID))
	_, err = s.svc.GetRecipe(s.ctx, nil, view.Recipe.ID)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.svc.DeleteRecipe(s.ctx, author, view.Recipe.ID), ErrNotFound)

	_, err = os.Stat(filepath.Join(s.mediaFS, filepath.FromSlash(view.Recipe.Image)))
	s.True(os.IsNotExist(err), "image is removed with the recipe")
}

func (s *ServiceTestSuite) TestListRecipes_Flags() {
	author := s.register("chef")
	fan := s.register("fan")
	r1 := s.createRecipe(author, "r1", map[string]float64{"flour": 1})
	r2 := s.createRecipe(author, "r2", map[string]float64{"egg": 1})

	_, _, err := s.svc.AddFavorite(s.ctx, fan, r1.Recipe.ID)
	s.Require().NoError(err)
	_, _, err = s.svc.AddToCart(s.ctx, fan, r2.Recipe.ID)
	s.Require().NoError(err)
	_, _, err = s.svc.Subscribe(s.ctx, fan, author.ID, -1)
	s.Require().NoError(err)

	all := Page{Limit: -1}

	views, total, err := s.svc.ListRecipes(s.ctx, fan, RecipeQuery{Page: all})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	byName := lo.KeyBy(views, func(v RecipeView) string { return v.Recipe.Name })
	s.True(byName["r1"].IsFavorited)
	s.False(byName["r1"].IsInShoppingCart)
	s.False(byName["r2"].IsFavorited)
	s.True(byName["r2"].IsInShoppingCart)
	s.True(byName["r1"].Author.IsSubscribed)

	views, _, err = s.svc.ListRecipes(s.ctx, nil, RecipeQuery{Page: all})
	s.Require().NoError(err)
	for _, v := range views {
		s.False(v.IsFavorited)
		s.False(v.IsInShoppingCart)
		s.False(v.Author.IsSubscribed)
	}

	views, total, err = s.svc.ListRecipes(s.ctx, fan, RecipeQuery{IsFavorited: true, Page: all})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("r1", views[0].Recipe.Name)

	views, _, err = s.svc.ListRecipes(s.ctx, fan, RecipeQuery{IsInShoppingCart: true, Page: all})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("r2", views[0].Recipe.Name)
}

func (s *ServiceTestSuite) TestListRecipes_AnonymousFlagFilters() {
	author := s.register("chef")
	s.createRecipe(author, "r1", map[string]float64{"flour": 1})

	for _, q := range []RecipeQuery{
		{IsFavorited: true, Page: Page{Limit: 10}},
		{IsInShoppingCart: true, Page: Page{Limit: 10}},
	} {
		views, total, err := s.svc.ListRecipes(s.ctx, nil, q)
		s.Require().NoError(err)
		s.Empty(views)
		s.Zero(total)
	}
}

func (s *ServiceTestSuite) TestListRecipes_TagAndAuthorFilters() {
	alice := s.register("alice")
	bob := s.register("bob")

	in := s.recipeInput("soup", []string{"lunch", "dinner"}, map[string]float64{"milk": 100})
	_, err := s.svc.CreateRecipe(s.ctx, alice, in)
	s.Require().NoError(err)
	s.createRecipe(bob, "omelette", map[string]float64{"egg": 3})

	views, _, err := s.svc.ListRecipes(s.ctx, nil, RecipeQuery{Tags: []string{"dinner", "breakfast", "", "dinner"}, Page: Page{Limit: -1}})
	s.Require().NoError(err)
	s.Len(views, 2)

	views, _, err = s.svc.ListRecipes(s.ctx, nil, RecipeQuery{AuthorID: &bob.ID, Page: Page{Limit: -1}})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("omelette", views[0].Recipe.Name)
}
