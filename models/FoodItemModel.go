package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FoodItem is a donor catalog entry: a quantity of food on offer plus
// optional contact and location metadata.
type FoodItem struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name         string              `gorm:"not null" validate:"required"`
	Quantity     string              `gorm:"not null" validate:"required"`
	Description  string              `gorm:"type:text"`
	Value        decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	Supplier     string
	ContactEmail string `validate:"omitempty,email"`
	ContactPhone string
	Address      string
	Latitude     decimal.NullDecimal `gorm:"type:decimal(10,8)"`
	Longitude    decimal.NullDecimal `gorm:"type:decimal(11,8)"`

	// Ratings are removed together with the item.
	Ratings []Rating `gorm:"constraint:OnDelete:CASCADE;"`
}
