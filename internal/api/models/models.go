package models

// User is the public representation of an account.
type User struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar,omitempty"` // Gravatar URL, empty if disabled
}

// Tag is a catalog tag.
type Tag struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// Ingredient is a catalog ingredient.
type Ingredient struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredient is an ingredient with the amount a recipe uses.
// ID is the catalog ingredient id.
type RecipeIngredient struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	MeasurementUnit string  `json:"measurement_unit"`
	Amount          float64 `json:"amount"`
}

// Recipe is the full representation of a recipe.
type Recipe struct {
	ID               uint               `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           *User              `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// RecipeShort is the compact recipe returned by favourite and cart toggles
// and embedded in subscriptions.
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Subscription is a followed author with a preview of their recipes.
type Subscription struct {
	User
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

// Page is the envelope of every paginated list.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Token is returned by a successful login.
type Token struct {
	AuthToken string `json:"auth_token"`
}

// Error is the body of every error response. Fields is only set for validation failures.
type Error struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// IngredientAmountRequest is one ingredient of a recipe write request.
type IngredientAmountRequest struct {
	ID     uint    `json:"id"`
	Amount float64 `json:"amount"`
}

// RecipeRequest is the body of recipe create and update requests.
// Absent fields decode to nil.
type RecipeRequest struct {
	Name        *string                   `json:"name"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time"`
	Image       *string                   `json:"image"`
	Tags        []uint                    `json:"tags"`
	Ingredients []IngredientAmountRequest `json:"ingredients"`
}

// RegisterRequest is the body of a sign up.
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// SetPasswordRequest is the body of a password change.
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

// LoginRequest is the body of a token login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PushSubscriptionRequest is a browser PushSubscription serialized with toJSON().
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// PushUnsubscribeRequest names the endpoint to stop notifying.
type PushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// PushPublicKey is the VAPID key browsers subscribe with.
type PushPublicKey struct {
	PublicKey string `json:"public_key"`
}
