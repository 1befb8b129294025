package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/clause"
)

// Tag is a global catalog label that recipes can be filtered by.
type Tag struct {
	Model
	Name  string `gorm:"size:200;not null"`
	Color string `gorm:"size:7;not null;default:'#FF0000'"`
	Slug  string `gorm:"uniqueIndex;size:200;not null"`
}

func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		log.Error("failed to get tags", "error", err)
		return nil, err
	}
	return tags, nil
}

func (c *Client) GetTagByID(ctx context.Context, id uint) (*Tag, error) {
	var tag Tag
	if err := c.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if !IsNotFound(err) {
			log.Error("failed to get tag by ID", "error", err)
		}
		return nil, err
	}
	return &tag, nil
}

// GetTagsByIDs returns the tags matching ids. Unknown ids are silently skipped,
// callers compare lengths to detect them.
func (c *Client) GetTagsByIDs(ctx context.Context, ids []uint) ([]Tag, error) {
	var tags []Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		log.Error("failed to get tags by IDs", "error", err)
		return nil, err
	}
	return tags, nil
}

// CreateTags inserts catalog tags, skipping slugs that already exist.
// It returns the number of rows actually inserted.
func (c *Client) CreateTags(ctx context.Context, tags []Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	result := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&tags)
	if result.Error != nil {
		log.Error("failed to create tags", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
