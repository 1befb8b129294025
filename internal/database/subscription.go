package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Subscription means that User follows the recipes of Subscribed.
type Subscription struct {
	Model
	UserID       uint `gorm:"not null;uniqueIndex:idx_subscription_pair"`
	User         User `gorm:"constraint:OnDelete:CASCADE;"`
	SubscribedID uint `gorm:"not null;index;uniqueIndex:idx_subscription_pair;check:chk_subscription_not_self,user_id <> subscribed_id"`
	Subscribed   User `gorm:"foreignKey:SubscribedID;constraint:OnDelete:CASCADE;"`
}

// Subscribe records that followerID follows authorID. It returns
// ErrAlreadyExists when the subscription was already present.
func (c *Client) Subscribe(ctx context.Context, followerID, authorID uint) error {
	return c.insertOrIgnore(ctx, &Subscription{UserID: followerID, SubscribedID: authorID}, "user_id", "subscribed_id")
}

// Unsubscribe removes the subscription if present.
func (c *Client) Unsubscribe(ctx context.Context, followerID, authorID uint) (bool, error) {
	return c.deletePair(ctx, &Subscription{}, "user_id = ? AND subscribed_id = ?", followerID, authorID)
}

// SubscribedAuthorIDs returns the subset of authorIDs followed by followerID.
func (c *Client) SubscribedAuthorIDs(ctx context.Context, followerID uint, authorIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := c.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("user_id = ? AND subscribed_id IN ?", followerID, authorIDs).
		Pluck("subscribed_id", &ids).Error
	if err != nil {
		log.Error("failed to look up subscriptions", "error", err)
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListSubscriptions returns a page of the authors followed by followerID, most
// recently followed first, together with the total number of subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context, followerID uint, limit, offset int) ([]User, int64, error) {
	tx := c.db.WithContext(ctx).
		Model(&User{}).
		Joins("JOIN subscriptions ON subscriptions.subscribed_id = users.id").
		Where("subscriptions.user_id = ?", followerID).
		Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		log.Error("failed to count subscriptions", "error", err)
		return nil, 0, err
	}

	var users []User
	err := tx.
		Order("subscriptions.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		log.Error("failed to list subscriptions", "error", err)
		return nil, 0, err
	}
	return users, total, nil
}

// Followers returns the active users following authorID.
func (c *Client) Followers(ctx context.Context, authorID uint) ([]User, error) {
	var users []User
	err := c.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.subscribed_id = ? AND users.is_active = ?", authorID, true).
		Order("users.id").
		Find(&users).Error
	if err != nil {
		log.Error("failed to list followers", "error", err)
		return nil, err
	}
	return users, nil
}
