// Package orders runs offers, orders and order items: the lifecycle
// transitions, the stock deltas of item changes and the order totals.
package orders

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Totals sums the item net amounts and derives the gross amount.
func Totals(items []models.OrderItem, vat decimal.Decimal) (net, gross decimal.Decimal) {
	net = decimal.Zero
	for _, it := range items {
		net = net.Add(it.NetAmount)
	}
	net = net.Round(2)
	return net, models.Gross(net, vat)
}

// PriceLine fills the derived amounts of an item from quantity and unit price.
func PriceLine(item *models.OrderItem, vat decimal.Decimal) {
	item.UnitPrice = item.UnitPrice.Round(2)
	item.NetAmount = models.LineNet(item.Quantity, item.UnitPrice)
	item.GrossAmount = models.Gross(item.NetAmount, vat)
}

// RecomputeTotals locks the order row, re-aggregates all of its items and
// writes net and gross. It is the only writer of the two columns.
func RecomputeTotals(tx *gorm.DB, orderID uint, vat decimal.Decimal) (*models.Order, error) {
	var order models.Order
	if err := database.ForUpdate(tx).First(&order, orderID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("order", orderID)
		}
		return nil, apperr.Wrap(err, "order", "lock")
	}

	var items []models.OrderItem
	if err := tx.Select("id", "net_amount").Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, apperr.Wrap(err, "order item", "list")
	}

	net, gross := Totals(items, vat)
	err := tx.Model(&order).Updates(map[string]any{
		"net_amount":   net,
		"gross_amount": gross,
	}).Error
	if err != nil {
		return nil, apperr.Wrap(err, "order", "recompute totals")
	}
	order.NetAmount = net
	order.GrossAmount = gross
	return &order, nil
}
