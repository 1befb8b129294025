package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/foodgram/internal/api/auth"
	"github.com/jon4hz/foodgram/internal/api/models"
)

// PushPublicKey returns the VAPID public key.
func (h *Handler) PushPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, models.PushPublicKey{PublicKey: h.cfg.WebPush.PublicKey})
}

// AddPushSubscription registers a device of the caller for push notifications.
func (h *Handler) AddPushSubscription(c *gin.Context) {
	var req models.PushSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.RegisterPushSubscription(c.Request.Context(), auth.CurrentUser(c), req.ToPushSubscriptionInput(c.Request.UserAgent()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// RemovePushSubscription unregisters a device of the caller.
func (h *Handler) RemovePushSubscription(c *gin.Context) {
	var req models.PushUnsubscribeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.RemovePushSubscription(c.Request.Context(), auth.CurrentUser(c), req.Endpoint); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
