// Package webpush notifies followers about new recipes through browser push
// notifications.
package webpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/samber/lo"
)

// Store is the persistence the client needs.
type Store interface {
	PushSubscriptionsForUsers(ctx context.Context, userIDs []uint) ([]database.PushSubscription, error)
	DeletePushSubscriptionByID(ctx context.Context, id uint) error
}

// Client sends web push notifications to the stored subscriptions.
type Client struct {
	config     *config.WebPushConfig
	store      Store
	serverURL  string
	httpClient webpush.HTTPClient
}

// NotificationPayload is the JSON document the service worker receives.
type NotificationPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
}

// NewClient creates a new webpush client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg *config.WebPushConfig, store Store, serverURL string, httpClient webpush.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		config:     cfg,
		store:      store,
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		httpClient: httpClient,
	}
}

// GenerateVAPIDKeys generates a new VAPID key pair.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}

// NewRecipe pushes a notification about recipe to every device of the followers.
// Subscriptions the push service reports as gone are deleted.
func (c *Client) NewRecipe(ctx context.Context, author database.User, recipe database.Recipe, followers []database.User) error {
	if c.config == nil || !c.config.Enabled {
		log.Debug("Push notifications are disabled, skipping notification")
		return nil
	}

	subs, err := c.store.PushSubscriptionsForUsers(ctx, lo.Map(followers, func(u database.User, _ int) uint { return u.ID }))
	if err != nil {
		return fmt.Errorf("failed to load push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(NotificationPayload{
		Title: "New recipe from " + author.Username,
		Body:  recipe.Name,
		Data: map[string]any{
			"type":      "new_recipe",
			"recipe_id": recipe.ID,
			"url":       c.serverURL + "/recipes/" + strconv.FormatUint(uint64(recipe.ID), 10),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	var sent int
	var lastErr error
	for _, sub := range subs {
		err := c.send(ctx, payload, sub)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, errSubscriptionGone):
			log.Debug("Removing expired push subscription", "id", sub.ID, "user_id", sub.UserID)
			if err := c.store.DeletePushSubscriptionByID(ctx, sub.ID); err != nil {
				lastErr = err
			}
		default:
			log.Warn("Failed to send push notification", "id", sub.ID, "user_id", sub.UserID, "error", err)
			lastErr = err
		}
	}

	log.Debug("Sent push notifications", "recipe_id", recipe.ID, "sent", sent, "total", len(subs))
	if sent == 0 && lastErr != nil {
		return fmt.Errorf("failed to send push notifications: %w", lastErr)
	}
	return nil
}

var errSubscriptionGone = errors.New("push subscription is gone")

func (c *Client) send(ctx context.Context, payload []byte, sub database.PushSubscription) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      c.httpClient,
		Subscriber:      c.config.VAPIDEmail,
		VAPIDPublicKey:  c.config.PublicKey,
		VAPIDPrivateKey: c.config.PrivateKey,
		TTL:             3600,
		RecordSize:      3000, // larger records are rejected by firefox on android
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return errSubscriptionGone
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("push service responded with status %d", resp.StatusCode)
	}
	return nil
}
