package models

import "time"

type ProductCategory struct {
	ID        uint             `gorm:"primaryKey"`
	Name      string           `gorm:"size:100;not null"`
	ParentID  *uint            `gorm:"index"`
	Parent    *ProductCategory `gorm:"constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductCategoryAssignment struct {
	ProductID  string           `gorm:"primaryKey;size:40"`
	Product    *Product         `gorm:"constraint:OnDelete:RESTRICT"`
	CategoryID uint             `gorm:"primaryKey"`
	Category   *ProductCategory `gorm:"constraint:OnDelete:RESTRICT"`
	CreatedAt  time.Time
}

// ProductCategoryTree is the denormalized hierarchy view per product. Rows are
// written only by the database refresh functions.
type ProductCategoryTree struct {
	ProductID  string `gorm:"primaryKey;size:40" json:"product_id"`
	CategoryID uint   `gorm:"primaryKey" json:"category_id"`
	ParentID   *uint  `json:"parent_id"`
	Name       string `gorm:"size:100" json:"name"`
	Level      int    `gorm:"not null" json:"level"`
	// true when the product is assigned to this node directly, false for ancestors
	Assigned bool `gorm:"not null" json:"assigned"`
}

func (ProductCategoryTree) TableName() string { return "product_category_trees" }
