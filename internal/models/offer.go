package models

import "time"

// Offer is a customer's service request before it turns into an order.
type Offer struct {
	ID               uint        `gorm:"primaryKey"`
	CustomerID       uint        `gorm:"index;not null"`
	Customer         *User       `gorm:"constraint:OnDelete:RESTRICT"`
	VehicleID        uint        `gorm:"index;not null"`
	Vehicle          *Vehicle    `gorm:"constraint:OnDelete:RESTRICT"`
	RequestedAt      time.Time   `gorm:"not null"`
	IssueDescription string      `gorm:"type:text;not null"`
	Status           OfferStatus `gorm:"size:30;not null;index"`
	AgentID          *uint       `gorm:"index"`
	Agent            *User
	AppointmentAt    *time.Time
	AdminComment     string       `gorm:"type:text"`
	Images           []OfferImage `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OfferImage struct {
	ID        uint   `gorm:"primaryKey"`
	OfferID   uint   `gorm:"index;not null"`
	URL       string `gorm:"size:500;not null"`
	CreatedAt time.Time
}
