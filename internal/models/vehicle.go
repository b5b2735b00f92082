package models

import "time"

type Vehicle struct {
	ID           uint   `gorm:"primaryKey"`
	OwnerID      uint   `gorm:"index;not null"`
	Owner        *User  `gorm:"constraint:OnDelete:RESTRICT"`
	LicensePlate string `gorm:"size:20;uniqueIndex;not null"`
	VIN          string `gorm:"size:17;uniqueIndex;not null"`
	Make         string `gorm:"size:50;not null"`
	Model        string `gorm:"size:50;not null"`
	Year         int
	FuelTypeID   *uint
	FuelType     *FuelType
	Odometer     int `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
