package database

import "context"

var _ DB = (*Client)(nil) // Ensure Client implements DB

// DB is the full set of store operations used by the service layer.
type DB interface {
	UserDB
	CatalogDB
	RecipeDB
	RelationDB
	PushDB

	Count(ctx context.Context, model any) (int64, error)
	Migrate() error
	Close() error
}

// UserDB defines the account and token operations.
type UserDB interface {
	CreateUser(ctx context.Context, user *User, password string) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, bool, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error)
	SetPassword(ctx context.Context, userID uint, password string) error
	SetAdmin(ctx context.Context, userID uint, admin bool) error
	SetActive(ctx context.Context, userID uint, active bool) error

	GetOrCreateToken(ctx context.Context, userID uint) (*Token, error)
	GetUserByToken(ctx context.Context, key string) (*User, error)
	DeleteToken(ctx context.Context, userID uint) error
}

// CatalogDB defines the tag and ingredient catalog operations.
type CatalogDB interface {
	GetTags(ctx context.Context) ([]Tag, error)
	GetTagByID(ctx context.Context, id uint) (*Tag, error)
	GetTagsByIDs(ctx context.Context, ids []uint) ([]Tag, error)
	CreateTags(ctx context.Context, tags []Tag) (int64, error)

	GetIngredients(ctx context.Context, prefix string) ([]Ingredient, error)
	GetIngredientByID(ctx context.Context, id uint) (*Ingredient, error)
	GetIngredientsByIDs(ctx context.Context, ids []uint) ([]Ingredient, error)
	CreateIngredients(ctx context.Context, ingredients []Ingredient) (int64, error)
}

// RecipeDB defines the recipe operations.
type RecipeDB interface {
	CreateRecipe(ctx context.Context, recipe *Recipe, tags []Tag, items []RecipeIngredient) error
	UpdateRecipe(ctx context.Context, id uint, fields map[string]any, tags []Tag, items []RecipeIngredient) error
	DeleteRecipe(ctx context.Context, id uint) error
	GetRecipeByID(ctx context.Context, id uint) (*Recipe, error)
	RecipeExists(ctx context.Context, id uint) (bool, error)
	ListRecipes(ctx context.Context, f RecipeFilter) ([]Recipe, int64, error)
	GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]Recipe, error)
	CountRecipesByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
	RecipeImages(ctx context.Context) ([]string, error)
}

// RelationDB defines the favourite, cart, subscription and shopping list operations.
type RelationDB interface {
	AddFavourite(ctx context.Context, userID, recipeID uint) error
	RemoveFavourite(ctx context.Context, userID, recipeID uint) (bool, error)
	FavouritedRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)

	AddToCart(ctx context.Context, userID, recipeID uint) error
	RemoveFromCart(ctx context.Context, userID, recipeID uint) (bool, error)
	CartRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
	GetShoppingList(ctx context.Context, userID uint) ([]ShoppingListItem, error)

	Subscribe(ctx context.Context, followerID, authorID uint) error
	Unsubscribe(ctx context.Context, followerID, authorID uint) (bool, error)
	SubscribedAuthorIDs(ctx context.Context, followerID uint, authorIDs []uint) (map[uint]bool, error)
	ListSubscriptions(ctx context.Context, followerID uint, limit, offset int) ([]User, int64, error)
	Followers(ctx context.Context, authorID uint) ([]User, error)
}

// PushDB defines the web push subscription operations.
type PushDB interface {
	SavePushSubscription(ctx context.Context, sub *PushSubscription) error
	DeletePushSubscription(ctx context.Context, userID uint, endpoint string) (bool, error)
	DeletePushSubscriptionByID(ctx context.Context, id uint) error
	PushSubscriptionsForUsers(ctx context.Context, userIDs []uint) ([]PushSubscription, error)
}
