package models

import "time"

type Rating struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Value      int  `gorm:"column:rating_value;not null;check:rating_value >= 1 AND rating_value <= 5" validate:"min=1,max=5"`
	FoodItemID uint `gorm:"not null;index" validate:"required"`
}
