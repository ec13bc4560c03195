package models

import "time"

type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Email    string `gorm:"uniqueIndex;not null" validate:"required,email,max=255"`
	Password string `gorm:"not null" validate:"required"`
	Name     string `validate:"max=255"`
}
