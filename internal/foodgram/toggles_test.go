package foodgram

import (
	"github.com/jon4hz/foodgram/internal/database"
)

func (s *ServiceTestSuite) TestFavoriteTwice() {
	author := s.register("chef")
	fan := s.register("fan")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 100})

	recipe, res, err := s.svc.AddFavorite(s.ctx, fan, view.Recipe.ID)
	s.Require().NoError(err)
	s.True(res.Created)
	s.Equal(view.Recipe.ID, recipe.ID)

	_, res, err = s.svc.AddFavorite(s.ctx, fan, view.Recipe.ID)
	s.Require().NoError(err)
	s.False(res.Created)

	s.EqualValues(1, s.countRows(&database.Favourite{}))
}

func (s *ServiceTestSuite) TestRemoveFavorite() {
	author := s.register("chef")
	fan := s.register("fan")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 100})

	// never favorited
	s.Require().NoError(s.svc.RemoveFavorite(s.ctx, fan, view.Recipe.ID))

	_, _, err := s.svc.AddFavorite(s.ctx, fan, view.Recipe.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.RemoveFavorite(s.ctx, fan, view.Recipe.ID))
	s.Require().NoError(s.svc.RemoveFavorite(s.ctx, fan, view.Recipe.ID))
	s.Zero(s.countRows(&database.Favourite{}))

	s.ErrorIs(s.svc.RemoveFavorite(s.ctx, fan, 9999), ErrNotFound)
	s.ErrorIs(s.svc.RemoveFavorite(s.ctx, nil, view.Recipe.ID), ErrUnauthorized)
}

func (s *ServiceTestSuite) TestCartToggles() {
	author := s.register("chef")
	buyer := s.register("buyer")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 100})

	_, res, err := s.svc.AddToCart(s.ctx, buyer, view.Recipe.ID)
	s.Require().NoError(err)
	s.True(res.Created)
	_, res, err = s.svc.AddToCart(s.ctx, buyer, view.Recipe.ID)
	s.Require().NoError(err)
	s.False(res.Created)
	s.EqualValues(1, s.countRows(&database.Cart{}))

	got, err := s.svc.GetRecipe(s.ctx, buyer, view.Recipe.ID)
	s.Require().NoError(err)
	s.True(got.IsInShoppingCart)
	s.False(got.IsFavorited)

	s.Require().NoError(s.svc.RemoveFromCart(s.ctx, buyer, view.Recipe.ID))
	s.Require().NoError(s.svc.RemoveFromCart(s.ctx, buyer, view.Recipe.ID))
	s.Zero(s.countRows(&database.Cart{}))
}

func (s *ServiceTestSuite) TestTogglesUnknownRecipe() {
	user := s.register("fan")

	_, _, err := s.svc.AddFavorite(s.ctx, user, 9999)
	s.ErrorIs(err, ErrNotFound)
	_, _, err = s.svc.AddToCart(s.ctx, user, 9999)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.svc.RemoveFromCart(s.ctx, user, 9999), ErrNotFound)

	_, _, err = s.svc.AddFavorite(s.ctx, nil, 1)
	s.ErrorIs(err, ErrUnauthorized)
	_, _, err = s.svc.AddToCart(s.ctx, nil, 1)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ServiceTestSuite) TestAuthorMayFavoriteOwnRecipe() {
	author := s.register("chef")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 100})

	_, res, err := s.svc.AddFavorite(s.ctx, author, view.Recipe.ID)
	s.Require().NoError(err)
	s.True(res.Created)
}

func (s *ServiceTestSuite) TestDeleteRecipeDropsRelations() {
	author := s.register("chef")
	fan := s.register("fan")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 100})

	_, _, err := s.svc.AddFavorite(s.ctx, fan, view.Recipe.ID)
	s.Require().NoError(err)
	_, _, err = s.svc.AddToCart(s.ctx, fan, view.Recipe.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteRecipe(s.ctx, author, view.Recipe.ID))

	s.Zero(s.countRows(&database.Favourite{}))
	s.Zero(s.countRows(&database.Cart{}))
	items, err := s.svc.ShoppingList(s.ctx, fan)
	s.Require().NoError(err)
	s.Empty(items)
}
