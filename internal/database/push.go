package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/clause"
)

// PushSubscription is a browser endpoint that receives web push notifications
// for a user. An endpoint belongs to at most one user.
type PushSubscription struct {
	Model
	UserID    uint   `gorm:"not null;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE;"`
	Endpoint  string `gorm:"uniqueIndex;size:2048;not null"`
	P256dh    string `gorm:"not null"`
	Auth      string `gorm:"not null"`
	UserAgent string
}

// SavePushSubscription stores sub. A known endpoint is reassigned to sub.UserID
// and its keys are refreshed.
func (c *Client) SavePushSubscription(ctx context.Context, sub *PushSubscription) error {
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "user_agent", "updated_at"}),
		}).
		Create(sub).Error
	if err != nil {
		log.Error("failed to save push subscription", "error", err)
		return err
	}
	return nil
}

// DeletePushSubscription removes the endpoint of a user.
func (c *Client) DeletePushSubscription(ctx context.Context, userID uint, endpoint string) (bool, error) {
	return c.deletePair(ctx, &PushSubscription{}, "user_id = ? AND endpoint = ?", userID, endpoint)
}

// DeletePushSubscriptionByID removes a subscription the push service reported as gone.
func (c *Client) DeletePushSubscriptionByID(ctx context.Context, id uint) error {
	if err := c.db.WithContext(ctx).Delete(&PushSubscription{}, id).Error; err != nil {
		log.Error("failed to delete push subscription", "error", err)
		return err
	}
	return nil
}

// PushSubscriptionsForUsers returns every subscription owned by one of userIDs.
func (c *Client) PushSubscriptionsForUsers(ctx context.Context, userIDs []uint) ([]PushSubscription, error) {
	var subs []PushSubscription
	if len(userIDs) == 0 {
		return subs, nil
	}
	if err := c.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("id").Find(&subs).Error; err != nil {
		log.Error("failed to list push subscriptions", "error", err)
		return nil, err
	}
	return subs, nil
}
