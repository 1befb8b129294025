package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/foodgram/internal/api/models"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/foodgram"
)

// Handler serves the JSON API.
type Handler struct {
	svc *foodgram.Service
	cfg *config.Config
}

// New creates the API handler.
func New(svc *foodgram.Service, cfg *config.Config) *Handler {
	return &Handler{
		svc: svc,
		cfg: cfg,
	}
}

// respondError maps service errors to status codes. Unexpected errors are
// logged and never echoed to the client.
func respondError(c *gin.Context, err error) {
	var verr *foodgram.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.Error{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, foodgram.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, models.Error{
			Error:  "validation failed",
			Fields: map[string][]string{foodgram.NonFieldErrors: {err.Error()}},
		})
	case errors.Is(err, foodgram.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.Error{Error: err.Error()})
	case errors.Is(err, foodgram.ErrForbidden):
		c.JSON(http.StatusForbidden, models.Error{Error: err.Error()})
	case errors.Is(err, foodgram.ErrNotFound):
		c.JSON(http.StatusNotFound, models.Error{Error: err.Error()})
	default:
		log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, models.Error{Error: "internal server error"})
	}
}

// bindJSON decodes the request body into dst and answers 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Debug("Rejected request body", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusBadRequest, models.Error{
			Error:  "validation failed",
			Fields: map[string][]string{foodgram.NonFieldErrors: {"Malformed request body."}},
		})
		return false
	}
	return true
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 0)
	if err != nil {
		return 0, err
	}
	return safecast.Convert[uint](id)
}

// idParam reads a numeric path parameter. Ids that cannot exist are reported as not found.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := parseUintParam(c.Param(name))
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, models.Error{Error: foodgram.ErrNotFound.Error()})
		return 0, false
	}
	return id, true
}

// queryInt reads a non-negative integer query parameter, def if absent.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, invalidParam(name, "A valid integer is required.")
	}
	v, err := safecast.Convert[int](n)
	if err != nil {
		return 0, invalidParam(name, "A valid integer is required.")
	}
	return v, nil
}

// queryBool reads a boolean flag such as is_favorited=1.
func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalidParam(name, "Must be a valid boolean.")
	}
	return v, nil
}

func invalidParam(name, msg string) error {
	verr := &foodgram.ValidationError{}
	verr.Add(name, msg)
	return verr
}

// pager is the page window requested through ?page and ?limit.
type pager struct {
	page  int
	limit int
}

func (h *Handler) pager(c *gin.Context) (pager, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return pager{}, err
	}
	if page < 1 {
		return pager{}, invalidParam("page", "Invalid page.")
	}
	limit, err := queryInt(c, "limit", h.cfg.Pagination.PageSize)
	if err != nil {
		return pager{}, err
	}
	if limit < 1 {
		limit = h.cfg.Pagination.PageSize
	}
	limit = min(limit, h.cfg.Pagination.MaxPageSize)
	if page > math.MaxInt/limit {
		return pager{}, invalidParam("page", "Invalid page.")
	}
	return pager{page: page, limit: limit}, nil
}

func (p pager) toPage() foodgram.Page {
	return foodgram.Page{Limit: p.limit, Offset: (p.page - 1) * p.limit}
}

// paginate wraps results in the list envelope with absolute next and previous links.
func paginate[T any](c *gin.Context, serverURL string, p pager, total int64, results []T) models.Page[T] {
	out := models.Page[T]{Count: total, Results: results}
	if out.Results == nil {
		out.Results = []T{}
	}
	if int64(p.page*p.limit) < total {
		out.Next = pageLink(c, serverURL, p.page+1)
	}
	if p.page > 1 {
		out.Previous = pageLink(c, serverURL, p.page-1)
	}
	return out
}

func pageLink(c *gin.Context, serverURL string, page int) *string {
	q := c.Request.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	link := serverURL + c.Request.URL.Path
	if encoded := q.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return &link
}

// recipesLimit reads ?recipes_limit, -1 when absent.
func recipesLimit(c *gin.Context) (int, error) {
	return queryInt(c, "recipes_limit", -1)
}
