package models

import (
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/jon4hz/foodgram/internal/foodgram"
	"github.com/samber/lo"
)

// MediaPrefix is the URL path uploaded images are served from.
const MediaPrefix = "/media/"

// ImageURL turns a stored image reference into an absolute URL.
func ImageURL(serverURL, ref string) string {
	if ref == "" {
		return ""
	}
	return serverURL + MediaPrefix + ref
}

// ToUser converts a profile to its public representation.
func ToUser(p foodgram.Profile) User {
	return User{
		Email:        p.User.Email,
		ID:           p.User.ID,
		Username:     p.User.Username,
		FirstName:    p.User.FirstName,
		LastName:     p.User.LastName,
		IsSubscribed: p.IsSubscribed,
		Avatar:       p.Avatar,
	}
}

// ToUsers converts a slice of profiles.
func ToUsers(profiles []foodgram.Profile) []User {
	return lo.Map(profiles, func(p foodgram.Profile, _ int) User { return ToUser(p) })
}

// ToTag converts a database.Tag.
func ToTag(t database.Tag) Tag {
	return Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

// ToTags converts a slice of database.Tag.
func ToTags(tags []database.Tag) []Tag {
	return lo.Map(tags, func(t database.Tag, _ int) Tag { return ToTag(t) })
}

// ToIngredient converts a database.Ingredient.
func ToIngredient(i database.Ingredient) Ingredient {
	return Ingredient{ID: i.ID, Name: i.Name, MeasurementUnit: string(i.MeasurementUnit)}
}

// ToIngredients converts a slice of database.Ingredient.
func ToIngredients(ingredients []database.Ingredient) []Ingredient {
	return lo.Map(ingredients, func(i database.Ingredient, _ int) Ingredient { return ToIngredient(i) })
}

// ToRecipe converts a recipe view. Image references become absolute URLs below serverURL.
func ToRecipe(v foodgram.RecipeView, serverURL string) Recipe {
	r := Recipe{
		ID:   v.Recipe.ID,
		Tags: ToTags(v.Recipe.Tags),
		Ingredients: lo.Map(v.Recipe.Ingredients, func(ri database.RecipeIngredient, _ int) RecipeIngredient {
			return RecipeIngredient{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: string(ri.Ingredient.MeasurementUnit),
				Amount:          ri.Amount,
			}
		}),
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             v.Recipe.Name,
		Image:            ImageURL(serverURL, v.Recipe.Image),
		Text:             v.Recipe.Text,
		CookingTime:      v.Recipe.CookingTime,
	}
	// the author is nil once the account is gone
	if v.Author != nil {
		r.Author = lo.ToPtr(ToUser(*v.Author))
	}
	return r
}

// ToRecipes converts a slice of recipe views.
func ToRecipes(views []foodgram.RecipeView, serverURL string) []Recipe {
	return lo.Map(views, func(v foodgram.RecipeView, _ int) Recipe { return ToRecipe(v, serverURL) })
}

// ToRecipeShort converts a recipe to its compact form.
func ToRecipeShort(r database.Recipe, serverURL string) RecipeShort {
	return RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       ImageURL(serverURL, r.Image),
		CookingTime: r.CookingTime,
	}
}

// ToSubscription converts a followed author.
func ToSubscription(a foodgram.AuthorView, serverURL string) Subscription {
	return Subscription{
		User: ToUser(a.Profile),
		Recipes: lo.Map(a.Recipes, func(r database.Recipe, _ int) RecipeShort {
			return ToRecipeShort(r, serverURL)
		}),
		RecipesCount: a.RecipesCount,
	}
}

// ToSubscriptions converts a slice of followed authors.
func ToSubscriptions(authors []foodgram.AuthorView, serverURL string) []Subscription {
	return lo.Map(authors, func(a foodgram.AuthorView, _ int) Subscription { return ToSubscription(a, serverURL) })
}

// ToRecipeInput converts a write request into the service payload.
func (r RecipeRequest) ToRecipeInput() foodgram.RecipeInput {
	in := foodgram.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Image:       r.Image,
		Tags:        r.Tags,
	}
	if r.Ingredients != nil {
		in.Ingredients = lo.Map(r.Ingredients, func(i IngredientAmountRequest, _ int) foodgram.IngredientAmount {
			return foodgram.IngredientAmount{ID: i.ID, Amount: i.Amount}
		})
	}
	return in
}

// ToRegisterInput converts a sign up request.
func (r RegisterRequest) ToRegisterInput() foodgram.RegisterInput {
	return foodgram.RegisterInput{
		Email:     r.Email,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
	}
}

// ToPushSubscriptionInput converts a push subscription request.
func (r PushSubscriptionRequest) ToPushSubscriptionInput(userAgent string) foodgram.PushSubscriptionInput {
	return foodgram.PushSubscriptionInput{
		Endpoint:  r.Endpoint,
		Keys:      foodgram.PushKeys{P256dh: r.Keys.P256dh, Auth: r.Keys.Auth},
		UserAgent: userAgent,
	}
}
