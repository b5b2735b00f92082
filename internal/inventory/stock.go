// Package inventory owns products, their tracked stock and supplier restock
// orders. Stock only ever changes through AdjustStock.
package inventory

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Adjustment is a signed stock delta for one product.
type Adjustment struct {
	SKU    string
	Delta  int
	Actor  *models.User
	Reason string
}

// AdjustStock applies the delta under a row lock inside tx. Products without
// tracked stock are left untouched. A negative result is allowed and logged.
func AdjustStock(tx *gorm.DB, adj Adjustment) error {
	var p models.Product
	err := database.ForUpdate(tx).Select("id", "stock_quantity").First(&p, "id = ?", adj.SKU).Error
	if database.IsNotFound(err) {
		return apperr.NotFound("product", adj.SKU)
	}
	if err != nil {
		return apperr.Wrap(err, "product", "lock")
	}

	if p.StockQuantity == nil || adj.Delta == 0 {
		return nil
	}

	before := *p.StockQuantity
	after := before + adj.Delta
	if after < 0 {
		zap.L().Warn("stock below zero",
			zap.String("sku", adj.SKU),
			zap.Int("stock", after),
			zap.String("reason", adj.Reason),
		)
	}

	err = tx.Model(&models.Product{}).Where("id = ?", adj.SKU).Update("stock_quantity", after).Error
	if err != nil {
		return apperr.Wrap(err, "product", "adjust stock")
	}

	return audit.Write(tx, audit.Entry{
		Actor:       adj.Actor,
		EntityType:  "product",
		EntityID:    adj.SKU,
		Action:      models.AuditActionStock,
		Description: adj.Reason,
		Before:      map[string]int{"stock_quantity": before},
		After:       map[string]int{"stock_quantity": after, "delta": adj.Delta},
	})
}
