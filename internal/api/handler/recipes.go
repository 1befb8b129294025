package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/foodgram/internal/api/auth"
	"github.com/jon4hz/foodgram/internal/api/models"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/jon4hz/foodgram/internal/foodgram"
	"github.com/samber/lo"
)

// ShoppingListFilename is the attachment name of the downloaded shopping list.
const ShoppingListFilename = "shopping_list.txt"

// ListRecipes returns a page of recipes filtered by tags, author and the
// viewer's favourites and cart.
func (h *Handler) ListRecipes(c *gin.Context) {
	p, err := h.pager(c)
	if err != nil {
		respondError(c, err)
		return
	}
	q, err := recipeQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	q.Page = p.toPage()

	views, total, err := h.svc.ListRecipes(c.Request.Context(), auth.CurrentUser(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, h.cfg.ServerURL, p, total, models.ToRecipes(views, h.cfg.ServerURL)))
}

func recipeQuery(c *gin.Context) (foodgram.RecipeQuery, error) {
	q := foodgram.RecipeQuery{Tags: c.QueryArray("tags")}

	if raw := c.Query("author"); raw != "" {
		id, err := parseUintParam(raw)
		if err != nil {
			return q, invalidParam("author", "A valid integer is required.")
		}
		q.AuthorID = lo.ToPtr(id)
	}

	var err error
	if q.IsFavorited, err = queryBool(c, "is_favorited"); err != nil {
		return q, err
	}
	if q.IsInShoppingCart, err = queryBool(c, "is_in_shopping_cart"); err != nil {
		return q, err
	}
	return q, nil
}

// GetRecipe returns a single recipe.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.GetRecipe(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToRecipe(*view, h.cfg.ServerURL))
}

// CreateRecipe publishes a recipe of the caller.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req models.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.svc.CreateRecipe(c.Request.Context(), auth.CurrentUser(c), req.ToRecipeInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToRecipe(*view, h.cfg.ServerURL))
}

// UpdateRecipe applies a partial update.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.svc.UpdateRecipe(c.Request.Context(), auth.CurrentUser(c), id, req.ToRecipeInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToRecipe(*view, h.cfg.ServerURL))
}

// DeleteRecipe removes a recipe.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteRecipe(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddFavorite bookmarks a recipe. 201 when added, 200 when it already was a favourite.
func (h *Handler) AddFavorite(c *gin.Context) {
	h.addRecipeToggle(c, h.svc.AddFavorite)
}

// RemoveFavorite drops a bookmark.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	h.removeRecipeToggle(c, h.svc.RemoveFavorite)
}

// AddToCart puts a recipe into the shopping cart. 201 when added, 200 when it already was in the cart.
func (h *Handler) AddToCart(c *gin.Context) {
	h.addRecipeToggle(c, h.svc.AddToCart)
}

// RemoveFromCart takes a recipe out of the shopping cart.
func (h *Handler) RemoveFromCart(c *gin.Context) {
	h.removeRecipeToggle(c, h.svc.RemoveFromCart)
}

func (h *Handler) addRecipeToggle(
	c *gin.Context,
	add func(ctx context.Context, viewer *database.User, recipeID uint) (*database.Recipe, foodgram.ToggleResult, error),
) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	recipe, res, err := add(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(toggleStatus(res), models.ToRecipeShort(*recipe, h.cfg.ServerURL))
}

func (h *Handler) removeRecipeToggle(
	c *gin.Context,
	remove func(ctx context.Context, viewer *database.User, recipeID uint) error,
) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toggleStatus(res foodgram.ToggleResult) int {
	if res.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// DownloadShoppingCart returns the aggregated shopping list of the caller as a text attachment.
func (h *Handler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.svc.ShoppingList(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ShoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(foodgram.RenderShoppingList(items)))
}
