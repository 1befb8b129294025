package database

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/clause"
)

// MeasurementUnit is the fixed unit an ingredient is measured in.
type MeasurementUnit string

const (
	UnitGram       MeasurementUnit = "g"
	UnitKilogram   MeasurementUnit = "kg"
	UnitMilligram  MeasurementUnit = "mg"
	UnitOunce      MeasurementUnit = "oz"
	UnitPound      MeasurementUnit = "lb"
	UnitTeaspoon   MeasurementUnit = "tsp"
	UnitTablespoon MeasurementUnit = "tbsp"
	UnitCup        MeasurementUnit = "c"
	UnitMilliliter MeasurementUnit = "ml"
	UnitLiter      MeasurementUnit = "l"
	UnitCentimeter MeasurementUnit = "cm"
	UnitInch       MeasurementUnit = "in"
	UnitItem       MeasurementUnit = "item"
	UnitPiece      MeasurementUnit = "piece"
	UnitToTaste    MeasurementUnit = "to taste"
	UnitDrop       MeasurementUnit = "drop"
)

// MeasurementUnits lists every accepted unit.
var MeasurementUnits = []MeasurementUnit{
	UnitGram, UnitKilogram, UnitMilligram, UnitOunce, UnitPound,
	UnitTeaspoon, UnitTablespoon, UnitCup, UnitMilliliter, UnitLiter,
	UnitCentimeter, UnitInch, UnitItem, UnitPiece, UnitToTaste, UnitDrop,
}

// Valid reports whether u is one of the known measurement units.
func (u MeasurementUnit) Valid() bool {
	for _, known := range MeasurementUnits {
		if u == known {
			return true
		}
	}
	return false
}

// Ingredient is a global catalog entry. The same name measured in a different
// unit is a different ingredient.
type Ingredient struct {
	Model
	Name            string          `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit"`
	MeasurementUnit MeasurementUnit `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit"`
}

// GetIngredients returns catalog ingredients ordered by name. A non-empty
// prefix restricts the result to names starting with it, ignoring case.
func (c *Client) GetIngredients(ctx context.Context, prefix string) ([]Ingredient, error) {
	tx := c.db.WithContext(ctx).Order("name").Order("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []Ingredient
	if err := tx.Find(&ingredients).Error; err != nil {
		log.Error("failed to get ingredients", "error", err)
		return nil, err
	}
	return ingredients, nil
}

func (c *Client) GetIngredientByID(ctx context.Context, id uint) (*Ingredient, error) {
	var ingredient Ingredient
	if err := c.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if !IsNotFound(err) {
			log.Error("failed to get ingredient by ID", "error", err)
		}
		return nil, err
	}
	return &ingredient, nil
}

// GetIngredientsByIDs returns the ingredients matching ids. Unknown ids are skipped.
func (c *Client) GetIngredientsByIDs(ctx context.Context, ids []uint) ([]Ingredient, error) {
	var ingredients []Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		log.Error("failed to get ingredients by IDs", "error", err)
		return nil, err
	}
	return ingredients, nil
}

// CreateIngredients inserts catalog ingredients, skipping (name, unit) pairs
// that already exist. It returns the number of rows actually inserted.
func (c *Client) CreateIngredients(ctx context.Context, ingredients []Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	result := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "measurement_unit"}},
			DoNothing: true,
		}).
		CreateInBatches(&ingredients, 500)
	if result.Error != nil {
		log.Error("failed to create ingredients", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
