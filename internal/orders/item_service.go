package orders

import (
	"context"
	"sort"
	"strings"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/database"
	"workshop-backend/internal/inventory"
	"workshop-backend/internal/lifecycle"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ItemInput struct {
	SKU      string
	Quantity int
	// nil takes the selling price less the customer's discount
	UnitPrice *decimal.Decimal
	Comment   string
}

type ItemUpdate struct {
	SKU       *string
	Quantity  *int
	UnitPrice *decimal.Decimal
	Comment   *string
}

// ItemResult returns the changed item with the recomputed order totals.
type ItemResult struct {
	Item  *ItemView  `json:"item,omitempty"`
	Order *OrderView `json:"order"`
}

// ItemService mutates order items. Every mutation applies its stock delta and
// recomputes the order totals inside the same transaction. Row locks are taken
// in the order: order, item, products by SKU.
type ItemService struct {
	db     *gorm.DB
	vat    decimal.Decimal
	orders *OrderService
}

func NewItemService(db *gorm.DB, vat decimal.Decimal, orders *OrderService) *ItemService {
	return &ItemService{db: db, vat: vat, orders: orders}
}

func (s *ItemService) List(ctx context.Context, actor *models.User, orderID uint) ([]ItemView, error) {
	if _, err := s.orders.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	var items []models.OrderItem
	err := s.db.WithContext(ctx).Preload("Product").Where("order_id = ?", orderID).Order("id asc").Find(&items).Error
	if err != nil {
		return nil, apperr.Wrap(err, "order item", "list")
	}
	out := make([]ItemView, 0, len(items))
	for i := range items {
		out = append(out, newItemView(&items[i]))
	}
	return out, nil
}

func (s *ItemService) Create(ctx context.Context, actor *models.User, orderID uint, in ItemInput) (*ItemResult, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be greater than 0")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, apperr.Validation("unit_price cannot be negative")
	}
	sku := models.NormalizeSKU(in.SKU)

	var item models.OrderItem
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := lockEditableOrder(tx, orderID)
		if err != nil {
			return err
		}
		product, err := loadProduct(tx, sku)
		if err != nil {
			return err
		}

		item = models.OrderItem{
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  in.Quantity,
			Comment:   strings.TrimSpace(in.Comment),
		}
		if in.UnitPrice != nil {
			item.UnitPrice = *in.UnitPrice
		} else {
			item.UnitPrice, err = listPrice(tx, product, order.CustomerID)
			if err != nil {
				return err
			}
		}
		PriceLine(&item, s.vat)

		if err := tx.Create(&item).Error; err != nil {
			return apperr.Wrap(err, "order item", "create")
		}
		if err := inventory.AdjustStock(tx, inventory.Adjustment{
			SKU:    item.ProductID,
			Delta:  -item.Quantity,
			Actor:  actor,
			Reason: "order " + order.OrderNumber + " item added",
		}); err != nil {
			return err
		}
		_, err = RecomputeTotals(tx, order.ID, s.vat)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.result(ctx, actor, &item)
}

func (s *ItemService) Update(ctx context.Context, actor *models.User, itemID uint, in ItemUpdate) (*ItemResult, error) {
	if in.Quantity != nil && *in.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be greater than 0")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, apperr.Validation("unit_price cannot be negative")
	}

	var orderID uint
	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).Select("order_id").Where("id = ?", itemID).Scan(&orderID).Error; err != nil {
		return nil, apperr.Wrap(err, "order item", "get")
	}
	if orderID == 0 {
		return nil, apperr.NotFound("order item", itemID)
	}

	var item models.OrderItem
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := lockEditableOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := database.ForUpdate(tx).Where("order_id = ?", orderID).First(&item, itemID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("order item", itemID)
			}
			return apperr.Wrap(err, "order item", "lock")
		}

		oldSKU, oldQty := item.ProductID, item.Quantity
		if in.SKU != nil {
			product, err := loadProduct(tx, models.NormalizeSKU(*in.SKU))
			if err != nil {
				return err
			}
			item.ProductID = product.ID
		}
		if in.Quantity != nil {
			item.Quantity = *in.Quantity
		}
		if in.UnitPrice != nil {
			item.UnitPrice = *in.UnitPrice
		}
		if in.Comment != nil {
			item.Comment = strings.TrimSpace(*in.Comment)
		}
		PriceLine(&item, s.vat)

		err = tx.Model(&item).
			Select("product_id", "quantity", "unit_price", "net_amount", "gross_amount", "comment").
			Updates(&item).Error
		if err != nil {
			return apperr.Wrap(err, "order item", "update")
		}

		reason := "order " + order.OrderNumber + " item changed"
		for _, adj := range StockDeltas(oldSKU, oldQty, item.ProductID, item.Quantity) {
			adj.Actor = actor
			adj.Reason = reason
			if err := inventory.AdjustStock(tx, adj); err != nil {
				return err
			}
		}
		_, err = RecomputeTotals(tx, order.ID, s.vat)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.result(ctx, actor, &item)
}

func (s *ItemService) Delete(ctx context.Context, actor *models.User, itemID uint) (*ItemResult, error) {
	var orderID uint
	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).Select("order_id").Where("id = ?", itemID).Scan(&orderID).Error; err != nil {
		return nil, apperr.Wrap(err, "order item", "get")
	}
	if orderID == 0 {
		return nil, apperr.NotFound("order item", itemID)
	}

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := lockEditableOrder(tx, orderID)
		if err != nil {
			return err
		}
		var item models.OrderItem
		if err := database.ForUpdate(tx).Where("order_id = ?", orderID).First(&item, itemID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("order item", itemID)
			}
			return apperr.Wrap(err, "order item", "lock")
		}

		if err := tx.Delete(&item).Error; err != nil {
			return apperr.Wrap(err, "order item", "delete")
		}
		if err := inventory.AdjustStock(tx, inventory.Adjustment{
			SKU:    item.ProductID,
			Delta:  item.Quantity,
			Actor:  actor,
			Reason: "order " + order.OrderNumber + " item removed",
		}); err != nil {
			return err
		}
		_, err = RecomputeTotals(tx, order.ID, s.vat)
		return err
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Order: order}, nil
}

// StockDeltas lists the adjustments for an item moving from (oldSKU, oldQty)
// to (newSKU, newQty), sorted by SKU so product locks are taken in order.
func StockDeltas(oldSKU string, oldQty int, newSKU string, newQty int) []inventory.Adjustment {
	var out []inventory.Adjustment
	if oldSKU == newSKU {
		if d := oldQty - newQty; d != 0 {
			out = append(out, inventory.Adjustment{SKU: newSKU, Delta: d})
		}
		return out
	}
	out = append(out,
		inventory.Adjustment{SKU: oldSKU, Delta: oldQty},
		inventory.Adjustment{SKU: newSKU, Delta: -newQty},
	)
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (s *ItemService) result(ctx context.Context, actor *models.User, item *models.OrderItem) (*ItemResult, error) {
	var loaded models.OrderItem
	if err := s.db.WithContext(ctx).Preload("Product").First(&loaded, item.ID).Error; err != nil {
		return nil, apperr.Wrap(err, "order item", "get")
	}
	order, err := s.orders.Get(ctx, actor, loaded.OrderID)
	if err != nil {
		return nil, err
	}
	v := newItemView(&loaded)
	return &ItemResult{Item: &v, Order: order}, nil
}

func lockEditableOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	order, err := lockOrder(tx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.OrderEditable(order.Status) {
		return nil, apperr.Validation("order %s is completed; its items can no longer change", order.OrderNumber)
	}
	return order, nil
}

func loadProduct(tx *gorm.DB, sku string) (*models.Product, error) {
	var p models.Product
	if err := tx.First(&p, "id = ?", sku).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.Validation("product %s does not exist", sku)
		}
		return nil, apperr.Wrap(err, "product", "get")
	}
	return &p, nil
}

// listPrice is the selling price less the customer's discount percentage.
func listPrice(tx *gorm.DB, p *models.Product, customerID uint) (decimal.Decimal, error) {
	var customer models.User
	if err := tx.Select("id", "discount_percent").First(&customer, customerID).Error; err != nil {
		return decimal.Zero, apperr.Wrap(err, "user", "get")
	}
	return DiscountedPrice(p.SellingPrice, customer.DiscountPercent), nil
}

func DiscountedPrice(price, discountPercent decimal.Decimal) decimal.Decimal {
	if discountPercent.IsZero() {
		return price.Round(2)
	}
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimal.NewFromInt(100)))
	return price.Mul(factor).Round(2)
}
