package foodgram

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/database"
)

// PushKeys are the encryption keys of a browser push subscription.
type PushKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// PushSubscriptionInput is a subscription as handed out by the browser Push API.
type PushSubscriptionInput struct {
	Endpoint  string   `json:"endpoint" validate:"required,url,max=2048"`
	Keys      PushKeys `json:"keys"`
	UserAgent string   `json:"-"`
}

// RegisterPushSubscription lets the viewer receive push notifications on a device.
func (s *Service) RegisterPushSubscription(ctx context.Context, viewer *database.User, in PushSubscriptionInput) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	in.Endpoint = strings.TrimSpace(in.Endpoint)
	if verr := validateStruct(&in); verr != nil {
		return verr
	}

	err := s.db.SavePushSubscription(ctx, &database.PushSubscription{
		UserID:    viewer.ID,
		Endpoint:  in.Endpoint,
		P256dh:    in.Keys.P256dh,
		Auth:      in.Keys.Auth,
		UserAgent: in.UserAgent,
	})
	if err != nil {
		return err
	}
	log.Debug("Push subscription registered", "user_id", viewer.ID)
	return nil
}

// RemovePushSubscription stops push notifications to a device of the viewer.
func (s *Service) RemovePushSubscription(ctx context.Context, viewer *database.User, endpoint string) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	removed, err := s.db.DeletePushSubscription(ctx, viewer.ID, strings.TrimSpace(endpoint))
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}
