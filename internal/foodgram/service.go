// Package foodgram implements the recipe sharing domain: recipe publishing,
// favourites, shopping carts, subscriptions and the shopping list.
//
// Every operation receives the calling user explicitly. A nil viewer is an
// anonymous caller.
package foodgram

import (
	"context"
	"sync"
	"time"

	"github.com/jon4hz/foodgram/internal/cache"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/database"
)

// ImageStore persists uploaded recipe images.
type ImageStore interface {
	SaveDataURI(dataURI string) (string, error)
	Delete(ref string) error
	Prune(keep []string, grace time.Duration) (int, error)
}

// Notifier tells followers that an author published a recipe.
type Notifier interface {
	NewRecipe(ctx context.Context, author database.User, recipe database.Recipe, followers []database.User) error
}

// Service is the domain layer between the HTTP handlers and the store.
type Service struct {
	db        database.DB
	images    ImageStore
	catalog   *cache.CatalogCache
	gravatar  *config.GravatarConfig
	notifiers []Notifier

	background sync.WaitGroup
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithCatalogCache serves tag and ingredient listings through a read-through cache.
func WithCatalogCache(c *cache.CatalogCache) Option {
	return func(s *Service) { s.catalog = c }
}

// WithGravatar enables avatar URLs on user profiles.
func WithGravatar(cfg *config.GravatarConfig) Option {
	return func(s *Service) { s.gravatar = cfg }
}

// WithNotifier notifies followers in the background whenever a recipe is
// published. It may be passed more than once.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifiers = append(s.notifiers, n) }
}

// New creates the service.
func New(db database.DB, images ImageStore, opts ...Option) *Service {
	s := &Service{db: db, images: images}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait blocks until background work such as follower notifications is done.
func (s *Service) Wait() {
	s.background.Wait()
}

// Page selects a window of a list. A negative Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Profile is a user as seen by the viewer.
type Profile struct {
	User         database.User
	IsSubscribed bool
	Avatar       string
}

// RecipeView is a recipe with the viewer dependent flags resolved.
type RecipeView struct {
	Recipe           database.Recipe
	Author           *Profile
	IsFavorited      bool
	IsInShoppingCart bool
}

// AuthorView is a followed author with a preview of their recipes.
type AuthorView struct {
	Profile      Profile
	Recipes      []database.Recipe
	RecipesCount int64
}

// ToggleResult tells whether an add operation created the relationship or
// found it already present. Both outcomes are successes.
type ToggleResult struct {
	Created bool
}

func requireUser(viewer *database.User) error {
	if viewer == nil {
		return ErrUnauthorized
	}
	return nil
}
