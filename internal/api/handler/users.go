package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/foodgram/internal/api/auth"
	"github.com/jon4hz/foodgram/internal/api/models"
)

// ListUsers returns a page of users.
func (h *Handler) ListUsers(c *gin.Context) {
	p, err := h.pager(c)
	if err != nil {
		respondError(c, err)
		return
	}
	profiles, total, err := h.svc.ListProfiles(c.Request.Context(), auth.CurrentUser(c), p.toPage())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, h.cfg.ServerURL, p, total, models.ToUsers(profiles)))
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.svc.Register(c.Request.Context(), req.ToRegisterInput())
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info("User registered", "user_id", profile.User.ID, "username", profile.User.Username)
	c.JSON(http.StatusCreated, models.ToUser(*profile))
}

// GetUser returns a single user.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.svc.GetProfile(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToUser(*profile))
}

// Me returns the caller.
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.svc.Me(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToUser(*profile))
}

// SetPassword changes the password of the caller.
func (h *Handler) SetPassword(c *gin.Context) {
	var req models.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetPassword(c.Request.Context(), auth.CurrentUser(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscribe follows an author. 201 when added, 200 when already following.
func (h *Handler) Subscribe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}
	author, res, err := h.svc.Subscribe(c.Request.Context(), auth.CurrentUser(c), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(toggleStatus(res), models.ToSubscription(*author, h.cfg.ServerURL))
}

// Unsubscribe stops following an author.
func (h *Handler) Unsubscribe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Unsubscribe(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions returns a page of the authors the caller follows.
func (h *Handler) Subscriptions(c *gin.Context) {
	p, err := h.pager(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}
	authors, total, err := h.svc.Subscriptions(c.Request.Context(), auth.CurrentUser(c), p.toPage(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, h.cfg.ServerURL, p, total, models.ToSubscriptions(authors, h.cfg.ServerURL)))
}

// Login exchanges email and password for an API token and also starts a browser session.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, key, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.StartSession(c, user); err != nil {
		respondError(c, err)
		return
	}
	log.Info("User logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, models.Token{AuthToken: key})
}

// Logout revokes the API token of the caller and ends the browser session.
func (h *Handler) Logout(c *gin.Context) {
	user := auth.CurrentUser(c)
	if err := h.svc.Logout(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	if err := auth.EndSession(c); err != nil {
		respondError(c, err)
		return
	}
	log.Info("User logged out", "user_id", user.ID)
	c.Status(http.StatusNoContent)
}
