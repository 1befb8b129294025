package foodgram

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Subscribe makes the viewer follow an author. Following an already followed
// author succeeds with Created=false. recipesLimit caps the recipe preview of
// the returned author, a negative value returns all recipes.
func (s *Service) Subscribe(ctx context.Context, viewer *database.User, authorID uint, recipesLimit int) (*AuthorView, ToggleResult, error) {
	if err := requireUser(viewer); err != nil {
		return nil, ToggleResult{}, err
	}
	if authorID == viewer.ID {
		return nil, ToggleResult{}, newValidationError(NonFieldErrors, "Users can't subscribe to themselves.")
	}

	author, err := s.db.GetUserByID(ctx, authorID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ToggleResult{}, notFound("user", authorID)
		}
		return nil, ToggleResult{}, err
	}

	result, err := toggleAdd(s.db.Subscribe(ctx, viewer.ID, authorID))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ToggleResult{}, notFound("user", authorID)
		}
		return nil, ToggleResult{}, err
	}

	views, err := s.authorViews(ctx, viewer, []database.User{*author}, recipesLimit)
	if err != nil {
		return nil, ToggleResult{}, err
	}
	return &views[0], result, nil
}

// Unsubscribe stops following an author. Unsubscribing from an author that is
// not followed succeeds.
func (s *Service) Unsubscribe(ctx context.Context, viewer *database.User, authorID uint) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	if _, err := s.db.GetUserByID(ctx, authorID); err != nil {
		if database.IsNotFound(err) {
			return notFound("user", authorID)
		}
		return err
	}
	_, err := s.db.Unsubscribe(ctx, viewer.ID, authorID)
	return err
}

// Subscriptions returns a page of the authors the viewer follows, most
// recently followed first, each with a preview of their recipes.
func (s *Service) Subscriptions(ctx context.Context, viewer *database.User, page Page, recipesLimit int) ([]AuthorView, int64, error) {
	if err := requireUser(viewer); err != nil {
		return nil, 0, err
	}
	authors, total, err := s.db.ListSubscriptions(ctx, viewer.ID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.authorViews(ctx, viewer, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *Service) authorViews(ctx context.Context, viewer *database.User, authors []database.User, recipesLimit int) ([]AuthorView, error) {
	profiles, err := s.profiles(ctx, viewer, authors)
	if err != nil {
		return nil, err
	}

	ids := lo.Map(authors, func(u database.User, _ int) uint { return u.ID })
	counts, err := s.db.CountRecipesByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]AuthorView, len(authors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range authors {
		g.Go(func() error {
			recipes, err := s.db.GetRecipesByAuthor(gctx, authors[i].ID, recipesLimit)
			if err != nil {
				return err
			}
			views[i] = AuthorView{
				Profile:      profiles[i],
				Recipes:      recipes,
				RecipesCount: counts[authors[i].ID],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// notifyFollowers hands a freshly published recipe to the notifiers without
// blocking the caller.
func (s *Service) notifyFollowers(ctx context.Context, author database.User, recipe database.Recipe) {
	if len(s.notifiers) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		followers, err := s.db.Followers(ctx, author.ID)
		if err != nil {
			log.Error("failed to load followers", "author_id", author.ID, "error", err)
			return
		}
		if len(followers) == 0 {
			return
		}
		for _, n := range s.notifiers {
			if err := n.NewRecipe(ctx, author, recipe, followers); err != nil {
				log.Error("failed to notify followers", "recipe_id", recipe.ID, "error", err)
			}
		}
		log.Debug("Notified followers", "recipe_id", recipe.ID, "count", len(followers))
	}()
}
