package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/foodgram/internal/api/models"
)

// ListTags returns every tag. Tags are not paginated.
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.svc.Tags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToTags(tags))
}

// GetTag returns a single tag.
func (h *Handler) GetTag(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	tag, err := h.svc.Tag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToTag(*tag))
}

// ListIngredients returns the ingredients whose name starts with ?name. Not paginated.
func (h *Handler) ListIngredients(c *gin.Context) {
	ingredients, err := h.svc.Ingredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToIngredients(ingredients))
}

// GetIngredient returns a single ingredient.
func (h *Handler) GetIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ingredient, err := h.svc.Ingredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToIngredient(*ingredient))
}
