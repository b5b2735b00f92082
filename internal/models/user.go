package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID              uint            `gorm:"primaryKey"`
	Name            string          `gorm:"size:100;not null"`
	Email           string          `gorm:"size:100;uniqueIndex;not null"`
	Phone           string          `gorm:"size:30"`
	Role            Role            `gorm:"size:20;not null;index"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	// nil until the user registers for login
	PasswordHash *string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) Registered() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
