package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a billable unit of work. NetAmount and GrossAmount are derived
// from the order items and only written by the totals recalculation.
type Order struct {
	ID          uint            `gorm:"primaryKey"`
	OrderNumber string          `gorm:"size:30;uniqueIndex;not null"`
	CustomerID  uint            `gorm:"index;not null"`
	Customer    *User           `gorm:"constraint:OnDelete:RESTRICT"`
	VehicleID   uint            `gorm:"index;not null"`
	Vehicle     *Vehicle        `gorm:"constraint:OnDelete:RESTRICT"`
	OfferID     *uint           `gorm:"uniqueIndex"`
	Offer       *Offer          `gorm:"constraint:OnDelete:RESTRICT"`
	MechanicID  *uint           `gorm:"index"`
	Mechanic    *User
	Status      OrderStatus     `gorm:"size:30;not null;index"`
	Comment     string          `gorm:"type:text"`
	NetAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	GrossAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OrderDate   time.Time       `gorm:"not null"`
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey"`
	OrderID     uint            `gorm:"index;not null"`
	Order       *Order          `gorm:"constraint:OnDelete:RESTRICT"`
	ProductID   string          `gorm:"size:40;index;not null"`
	Product     *Product        `gorm:"constraint:OnDelete:RESTRICT"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	NetAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	GrossAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Comment     string          `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
