package models

import "time"

// SupplierOrder is a pending restock request for one product.
type SupplierOrder struct {
	ID         uint                `gorm:"primaryKey"`
	ProductID  string              `gorm:"size:40;index;not null"`
	Product    *Product            `gorm:"constraint:OnDelete:RESTRICT"`
	AgentID    uint                `gorm:"index;not null"`
	Agent      *User
	Quantity   int                 `gorm:"not null"`
	OrderedAt  time.Time           `gorm:"not null"`
	Status     SupplierOrderStatus `gorm:"size:20;not null;index"`
	ReceivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
