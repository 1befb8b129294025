package foodgram

import (
	"context"

	"github.com/jon4hz/foodgram/internal/database"
	"github.com/samber/lo"
)

func (s *ServiceTestSuite) TestSubscribeSelf() {
	user := s.register("narcissus")

	_, _, err := s.svc.Subscribe(s.ctx, user, user.ID, -1)
	s.requireValidation(err, NonFieldErrors)
	s.Zero(s.countRows(&database.Subscription{}))
}

func (s *ServiceTestSuite) TestSubscribe() {
	author := s.register("chef")
	fan := s.register("fan")
	for _, name := range []string{"r1", "r2", "r3"} {
		s.createRecipe(author, name, map[string]float64{"egg": 1})
	}

	view, res, err := s.svc.Subscribe(s.ctx, fan, author.ID, 2)
	s.Require().NoError(err)
	s.True(res.Created)
	s.True(view.Profile.IsSubscribed)
	s.Equal("chef", view.Profile.User.Username)
	s.EqualValues(3, view.RecipesCount)
	s.Len(view.Recipes, 2)

	_, res, err = s.svc.Subscribe(s.ctx, fan, author.ID, 2)
	s.Require().NoError(err)
	s.False(res.Created)
	s.EqualValues(1, s.countRows(&database.Subscription{}))

	profile, err := s.svc.GetProfile(s.ctx, fan, author.ID)
	s.Require().NoError(err)
	s.True(profile.IsSubscribed)

	profile, err = s.svc.GetProfile(s.ctx, nil, author.ID)
	s.Require().NoError(err)
	s.False(profile.IsSubscribed)

	// subscriptions are one directional
	profile, err = s.svc.GetProfile(s.ctx, author, fan.ID)
	s.Require().NoError(err)
	s.False(profile.IsSubscribed)
}

func (s *ServiceTestSuite) TestSubscribeErrors() {
	fan := s.register("fan")

	_, _, err := s.svc.Subscribe(s.ctx, fan, 9999, -1)
	s.ErrorIs(err, ErrNotFound)
	_, _, err = s.svc.Subscribe(s.ctx, nil, fan.ID, -1)
	s.ErrorIs(err, ErrUnauthorized)
	s.ErrorIs(s.svc.Unsubscribe(s.ctx, fan, 9999), ErrNotFound)
	s.ErrorIs(s.svc.Unsubscribe(s.ctx, nil, fan.ID), ErrUnauthorized)
	_, _, err = s.svc.Subscriptions(s.ctx, nil, Page{Limit: 10}, -1)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ServiceTestSuite) TestUnsubscribe() {
	author := s.register("chef")
	fan := s.register("fan")

	// never subscribed
	s.Require().NoError(s.svc.Unsubscribe(s.ctx, fan, author.ID))

	_, _, err := s.svc.Subscribe(s.ctx, fan, author.ID, -1)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Unsubscribe(s.ctx, fan, author.ID))
	s.Zero(s.countRows(&database.Subscription{}))
}

func (s *ServiceTestSuite) TestSubscriptions() {
	fan := s.register("fan")
	alice := s.register("alice")
	bob := s.register("bob")
	s.register("carol")

	s.createRecipe(alice, "a1", map[string]float64{"flour": 1})
	s.createRecipe(bob, "b1", map[string]float64{"flour": 1})
	s.createRecipe(bob, "b2", map[string]float64{"sugar": 1})

	_, _, err := s.svc.Subscribe(s.ctx, fan, alice.ID, -1)
	s.Require().NoError(err)
	_, _, err = s.svc.Subscribe(s.ctx, fan, bob.ID, -1)
	s.Require().NoError(err)

	views, total, err := s.svc.Subscriptions(s.ctx, fan, Page{Limit: 10}, 1)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Equal([]string{"bob", "alice"}, lo.Map(views, func(v AuthorView, _ int) string { return v.Profile.User.Username }))
	s.EqualValues(2, views[0].RecipesCount)
	s.Len(views[0].Recipes, 1)
	for _, v := range views {
		s.True(v.Profile.IsSubscribed)
	}

	views, total, err = s.svc.Subscriptions(s.ctx, fan, Page{Limit: 1, Offset: 1}, -1)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Require().Len(views, 1)
	s.Equal("alice", views[0].Profile.User.Username)

	views, total, err = s.svc.Subscriptions(s.ctx, alice, Page{Limit: 10}, -1)
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(views)
}

type recordedNotification struct {
	author    string
	recipe    string
	followers []string
}

type fakeNotifier struct {
	sent chan recordedNotification
}

func (f *fakeNotifier) NewRecipe(_ context.Context, author database.User, recipe database.Recipe, followers []database.User) error {
	f.sent <- recordedNotification{
		author:    author.Username,
		recipe:    recipe.Name,
		followers: lo.Map(followers, func(u database.User, _ int) string { return u.Username }),
	}
	return nil
}

func (s *ServiceTestSuite) TestCreateRecipe_NotifiesFollowers() {
	notifier := &fakeNotifier{sent: make(chan recordedNotification, 4)}
	s.svc = New(s.db, s.images, WithNotifier(notifier))

	chef := s.register("chef")
	fan := s.register("fan")
	lonely := s.register("lonely")
	_, _, err := s.svc.Subscribe(s.ctx, fan, chef.ID, -1)
	s.Require().NoError(err)

	s.createRecipe(chef, "Soup", map[string]float64{"milk": 500})
	s.createRecipe(lonely, "Toast", map[string]float64{"flour": 50})
	s.svc.Wait()

	s.Require().Len(notifier.sent, 1, "authors without followers trigger no notification")
	got := <-notifier.sent
	s.Equal(recordedNotification{author: "chef", recipe: "Soup", followers: []string{"fan"}}, got)
}
