package database

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// Token is an API key issued at login. A user has at most one token.
type Token struct {
	Model
	Key    string `gorm:"uniqueIndex;size:40;not null"`
	UserID uint   `gorm:"uniqueIndex;not null"`
	User   User   `gorm:"constraint:OnDelete:CASCADE;"`
}

// GetOrCreateToken returns the token of a user, issuing one if necessary.
func (c *Client) GetOrCreateToken(ctx context.Context, userID uint) (*Token, error) {
	token := Token{
		Key:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID: userID,
	}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&token).Error
	if err != nil {
		log.Error("failed to create token", "error", err)
		return nil, err
	}

	var stored Token
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		log.Error("failed to load token", "error", err)
		return nil, err
	}
	return &stored, nil
}

// GetUserByToken resolves an API key to its active owner.
func (c *Client) GetUserByToken(ctx context.Context, key string) (*User, error) {
	var token Token
	err := c.db.WithContext(ctx).
		Preload("User").
		Where("key = ?", key).
		First(&token).Error
	if err != nil {
		if !IsNotFound(err) {
			log.Error("failed to get user by token", "error", err)
		}
		return nil, err
	}
	return &token.User, nil
}

// DeleteToken revokes the token of a user. Missing tokens are ignored.
func (c *Client) DeleteToken(ctx context.Context, userID uint) error {
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Token{}).Error; err != nil {
		log.Error("failed to delete token", "error", err)
		return err
	}
	return nil
}
