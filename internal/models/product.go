package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypePart    ProductType = "part"
	ProductTypeService ProductType = "service"
)

func (t ProductType) Valid() bool {
	return t == ProductTypePart || t == ProductTypeService
}

// Product is a catalog entry keyed by SKU. StockQuantity is nil for services
// and is only changed through the inventory adjuster after creation.
type Product struct {
	ID            string          `gorm:"primaryKey;size:40"`
	Name          string          `gorm:"size:150;not null"`
	Type          ProductType     `gorm:"size:20;not null"`
	Brand         string          `gorm:"size:100"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	SellingPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	StockQuantity *int
	Description   string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._-]{0,39}$`)

// NormalizeSKU upper-cases and trims a SKU as typed by a user.
func NormalizeSKU(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidSKU reports whether a normalized SKU can be stored.
func ValidSKU(s string) bool {
	return skuPattern.MatchString(s)
}
