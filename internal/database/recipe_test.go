package database

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRecipe(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	author := createTestUser(t, c, "chef")
	ings := createTestIngredients(t, c,
		Ingredient{Name: "flour", MeasurementUnit: UnitGram},
		Ingredient{Name: "milk", MeasurementUnit: UnitMilliliter},
	)
	breakfast := createTestTag(t, c, "breakfast")
	lunch := createTestTag(t, c, "lunch")

	recipe := createTestRecipe(t, c, author, "pancakes", []Tag{breakfast, lunch},
		RecipeIngredient{IngredientID: ings[0].ID, Amount: 200},
		RecipeIngredient{IngredientID: ings[1].ID, Amount: 0.5},
	)

	got, err := c.GetRecipeByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "pancakes", got.Name)
	require.NotNil(t, got.Author)
	assert.Equal(t, "chef", got.Author.Username)
	assert.Equal(t, []string{"breakfast", "lunch"}, lo.Map(got.Tags, func(tag Tag, _ int) string { return tag.Slug }))
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "flour", got.Ingredients[0].Ingredient.Name)
	assert.InDelta(t, 200, got.Ingredients[0].Amount, 1e-9)
	assert.Equal(t, UnitMilliliter, got.Ingredients[1].Ingredient.MeasurementUnit)
	assert.InDelta(t, 0.5, got.Ingredients[1].Amount, 1e-9)
}

func TestCreateRecipe_StoreConstraints(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	author := createTestUser(t, c, "chef")
	ings := createTestIngredients(t, c, Ingredient{Name: "flour", MeasurementUnit: UnitGram})
	tag := createTestTag(t, c, "breakfast")

	tests := []struct {
		name        string
		cookingTime int
		amount      float64
		wantErr     bool
	}{
		{name: "cooking time zero", cookingTime: 0, amount: 1, wantErr: true},
		{name: "cooking time one", cookingTime: 1, amount: 1},
		{name: "zero amount", cookingTime: 5, amount: 0, wantErr: true},
		{name: "negative amount", cookingTime: 5, amount: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := c.Count(ctx, &Recipe{})
			require.NoError(t, err)

			recipe := &Recipe{AuthorID: &author.ID, Name: tt.name, Image: "x.png", CookingTime: tt.cookingTime}
			err = c.CreateRecipe(ctx, recipe, []Tag{tag}, []RecipeIngredient{{IngredientID: ings[0].ID, Amount: tt.amount}})

			after, countErr := c.Count(ctx, &Recipe{})
			require.NoError(t, countErr)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, before, after, "failed create must not leave a recipe behind")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, before+1, after)
		})
	}
}

func TestUpdateRecipe_ReplacesIngredientsAndTags(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	author := createTestUser(t, c, "chef")
	ings := createTestIngredients(t, c,
		Ingredient{Name: "flour", MeasurementUnit: UnitGram},
		Ingredient{Name: "sugar", MeasurementUnit: UnitGram},
	)
	breakfast := createTestTag(t, c, "breakfast")
	dinner := createTestTag(t, c, "dinner")

	recipe := createTestRecipe(t, c, author, "cake", []Tag{breakfast},
		RecipeIngredient{IngredientID: ings[0].ID, Amount: 2},
		RecipeIngredient{IngredientID: ings[1].ID, Amount: 3},
	)

	err := c.UpdateRecipe(ctx, recipe.ID,
		map[string]any{"name": "better cake"},
		[]Tag{dinner},
		[]RecipeIngredient{{IngredientID: ings[0].ID, Amount: 5}},
	)
	require.NoError(t, err)

	got, err := c.GetRecipeByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "better cake", got.Name)
	assert.Equal(t, 10, got.CookingTime)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "dinner", got.Tags[0].Slug)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, ings[0].ID, got.Ingredients[0].IngredientID)
	assert.InDelta(t, 5, got.Ingredients[0].Amount, 1e-9)

	rows, err := c.Count(ctx, &RecipeIngredient{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)
}

func TestUpdateRecipe_KeepsAbsentParts(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	author := createTestUser(t, c, "chef")
	ings := createTestIngredients(t, c, Ingredient{Name: "flour", MeasurementUnit: UnitGram})
	tag := createTestTag(t, c, "breakfast")
	recipe := createTestRecipe(t, c, author, "bread", []Tag{tag}, RecipeIngredient{IngredientID: ings[0].ID, Amount: 500})

	require.NoError(t, c.UpdateRecipe(ctx, recipe.ID, map[string]any{"cooking_time": 45}, nil, nil))

	got, err := c.GetRecipeByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.CookingTime)
	assert.Len(t, got.Tags, 1)
	assert.Len(t, got.Ingredients, 1)
}

func TestUpdateRecipe_RollsBackOnFailure(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	author := createTestUser(t, c, "chef")
	ings := createTestIngredients(t, c,
		Ingredient{Name: "flour", MeasurementUnit: UnitGram},
		Ingredient{Name: "sugar", MeasurementUnit: UnitGram},
	)
	tag := createTestTag(t, c, "breakfast")
	recipe := createTestRecipe(t, c, author, "cake", []Tag{tag},
		RecipeIngredient{IngredientID: ings[0].ID, Amount: 2},
		RecipeIngredient{IngredientID: ings[1].ID, Amount: 3},
	)

	// The second row violates the amount check after the old rows were deleted.
	err := c.UpdateRecipe(ctx, recipe.ID, map[string]any{"name": "broken"}, nil, []RecipeIngredient{
		{IngredientID: ings[0].ID, Amount: 1},
		{IngredientID: ings[1].ID, Amount: -1},
	})
	require.Error(t, err)

	got, err := c.GetRecipeByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "cake", got.Name)
	require.Len(t, got.Ingredients, 2)
	assert.InDelta(t, 2, got.Ingredients[0].Amount, 1e-9)
	assert.InDelta(t, 3, got.Ingredients[1].Amount, 1e-9)
}

func TestUpdateRecipe_NotFound(t *testing.T) {
	c := newTestClient(t)
	err := c.UpdateRecipe(context.Background(), 4242, map[string]any{"name": "ghost"}, nil, nil)
	assert.True(t, IsNotFound(err))
}

func TestDeleteRecipe_RemovesDependents(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	author := createTestUser(t, c, "chef")
	fan := createTestUser(t, c, "fan")
	ings := createTestIngredients(t, c, Ingredient{Name: "flour", MeasurementUnit: UnitGram})
	tag := createTestTag(t, c, "breakfast")
	recipe := createTestRecipe(t, c, author, "bread", []Tag{tag}, RecipeIngredient{IngredientID: ings[0].ID, Amount: 500})

	require.NoError(t, c.AddFavourite(ctx, fan.ID, recipe.ID))
	require.NoError(t, c.AddToCart(ctx, fan.ID, recipe.ID))

	require.NoError(t, c.DeleteRecipe(ctx, recipe.ID))

	for _, model := range []any{&Recipe{}, &RecipeIngredient{}, &Favourite{}, &Cart{}} {
		n, err := c.Count(ctx, model)
		require.NoError(t, err)
		assert.Zero(t, n, "%T", model)
	}
	var links int64
	require.NoError(t, c.db.Table("recipe_tags").Count(&links).Error)
	assert.Zero(t, links)

	// catalog entries survive
	n, err := c.Count(ctx, &Tag{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.True(t, IsNotFound(c.DeleteRecipe(ctx, recipe.ID)))
}

func TestListRecipes_Filters(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	alice := createTestUser(t, c, "alice")
	bob := createTestUser(t, c, "bob")
	ings := createTestIngredients(t, c, Ingredient{Name: "flour", MeasurementUnit: UnitGram})
	breakfast := createTestTag(t, c, "breakfast")
	lunch := createTestTag(t, c, "lunch")
	dinner := createTestTag(t, c, "dinner")
	item := RecipeIngredient{IngredientID: ings[0].ID, Amount: 1}

	r1 := createTestRecipe(t, c, alice, "r1", []Tag{breakfast}, item)
	r2 := createTestRecipe(t, c, alice, "r2", []Tag{lunch, dinner}, item)
	r3 := createTestRecipe(t, c, bob, "r3", []Tag{dinner}, item)

	require.NoError(t, c.AddFavourite(ctx, bob.ID, r1.ID))
	require.NoError(t, c.AddFavourite(ctx, bob.ID, r3.ID))
	require.NoError(t, c.AddToCart(ctx, alice.ID, r2.ID))

	tests := []struct {
		name   string
		filter RecipeFilter
		want   []uint
	}{
		{name: "all newest first", filter: RecipeFilter{}, want: []uint{r3.ID, r2.ID, r1.ID}},
		{name: "single tag", filter: RecipeFilter{TagSlugs: []string{"dinner"}}, want: []uint{r3.ID, r2.ID}},
		{name: "tags are ORed", filter: RecipeFilter{TagSlugs: []string{"breakfast", "lunch"}}, want: []uint{r2.ID, r1.ID}},
		{name: "multi-tag recipe listed once", filter: RecipeFilter{TagSlugs: []string{"lunch", "dinner"}}, want: []uint{r3.ID, r2.ID}},
		{name: "unknown tag", filter: RecipeFilter{TagSlugs: []string{"brunch"}}, want: []uint{}},
		{name: "author", filter: RecipeFilter{AuthorID: &alice.ID}, want: []uint{r2.ID, r1.ID}},
		{name: "favorited", filter: RecipeFilter{FavoritedBy: &bob.ID}, want: []uint{r3.ID, r1.ID}},
		{name: "in cart", filter: RecipeFilter{InCartOf: &alice.ID}, want: []uint{r2.ID}},
		{name: "combined", filter: RecipeFilter{FavoritedBy: &bob.ID, AuthorID: &alice.ID}, want: []uint{r1.ID}},
		{name: "limit", filter: RecipeFilter{Limit: 2}, want: []uint{r3.ID, r2.ID}},
		{name: "offset", filter: RecipeFilter{Limit: 2, Offset: 2}, want: []uint{r1.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.filter.Limit == 0 {
				tt.filter.Limit = -1
			}
			got, total, err := c.ListRecipes(ctx, tt.filter)
			require.NoError(t, err)
			ids := lo.Map(got, func(r Recipe, _ int) uint { return r.ID })
			assert.Equal(t, tt.want, ids)
			if tt.filter.Offset == 0 && tt.filter.Limit < 0 {
				assert.EqualValues(t, len(tt.want), total)
			}
		})
	}

	_, total, err := c.ListRecipes(ctx, RecipeFilter{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total, "total ignores pagination")
}

func TestRecipesByAuthor(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	alice := createTestUser(t, c, "alice")
	bob := createTestUser(t, c, "bob")
	carol := createTestUser(t, c, "carol")
	ings := createTestIngredients(t, c, Ingredient{Name: "flour", MeasurementUnit: UnitGram})
	tag := createTestTag(t, c, "breakfast")
	item := RecipeIngredient{IngredientID: ings[0].ID, Amount: 1}

	createTestRecipe(t, c, alice, "a1", []Tag{tag}, item)
	createTestRecipe(t, c, alice, "a2", []Tag{tag}, item)
	createTestRecipe(t, c, alice, "a3", []Tag{tag}, item)
	createTestRecipe(t, c, bob, "b1", []Tag{tag}, item)

	recipes, err := c.GetRecipesByAuthor(ctx, alice.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2"}, lo.Map(recipes, func(r Recipe, _ int) string { return r.Name }))

	recipes, err = c.GetRecipesByAuthor(ctx, alice.ID, -1)
	require.NoError(t, err)
	assert.Len(t, recipes, 3)

	counts, err := c.CountRecipesByAuthors(ctx, []uint{alice.ID, bob.ID, carol.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[alice.ID])
	assert.EqualValues(t, 1, counts[bob.ID])
	assert.EqualValues(t, 0, counts[carol.ID])
}
