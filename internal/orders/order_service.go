package orders

import (
	"context"
	"strings"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/database"
	"workshop-backend/internal/lifecycle"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberAttempts = 3

type OrderInput struct {
	VehicleID  uint
	CustomerID *uint
	MechanicID *uint
	Comment    string
	OrderDate  *time.Time
}

type FromOfferInput struct {
	MechanicID *uint
	Comment    string
}

// OrderUpdate never carries amounts; they are derived from the items.
type OrderUpdate struct {
	Comment    *string
	MechanicID *uint
	OrderDate  *time.Time
}

type OrderFilter struct {
	Status     models.OrderStatus
	CustomerID *uint
	VehicleID  *uint
	MechanicID *uint
}

type OrderService struct {
	db  *gorm.DB
	vat decimal.Decimal
}

func NewOrderService(db *gorm.DB, vat decimal.Decimal) *OrderService {
	return &OrderService{db: db, vat: vat}
}

func (s *OrderService) List(ctx context.Context, actor *models.User, f OrderFilter) ([]OrderView, error) {
	q := ownedBy(s.db.WithContext(ctx), actor, "customer_id").
		Preload("Customer").Preload("Vehicle").Preload("Mechanic")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	if f.MechanicID != nil {
		q = q.Where("mechanic_id = ?", *f.MechanicID)
	}

	var orders []models.Order
	if err := q.Order("order_date desc, id desc").Find(&orders).Error; err != nil {
		return nil, apperr.Wrap(err, "order", "list")
	}

	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	counts, err := itemCounts(s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	out := make([]OrderView, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderView(&orders[i], counts[orders[i].ID]))
	}
	return out, nil
}

func (s *OrderService) Get(ctx context.Context, actor *models.User, id uint) (*OrderView, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Customer").Preload("Vehicle").Preload("Mechanic").First(&order, id).Error
	if database.IsNotFound(err) || (err == nil && !canSee(actor, order.CustomerID)) {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "order", "get")
	}
	counts, err := itemCounts(s.db.WithContext(ctx), []uint{id})
	if err != nil {
		return nil, err
	}
	v := newOrderView(&order, counts[id])
	return &v, nil
}

// Create opens an order without an offer.
func (s *OrderService) Create(ctx context.Context, actor *models.User, in OrderInput) (*OrderView, error) {
	order := models.Order{
		VehicleID:  in.VehicleID,
		MechanicID: in.MechanicID,
		Comment:    strings.TrimSpace(in.Comment),
		Status:     models.OrderCreated,
		OrderDate:  time.Now(),
	}
	if in.OrderDate != nil {
		order.OrderDate = *in.OrderDate
	}

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		vehicle, err := loadVehicle(tx, in.VehicleID)
		if err != nil {
			return err
		}
		if in.CustomerID != nil && *in.CustomerID != vehicle.OwnerID {
			return apperr.Validation("vehicle %d does not belong to customer %d", vehicle.ID, *in.CustomerID)
		}
		order.CustomerID = vehicle.OwnerID

		if in.MechanicID != nil {
			if err := requireStaff(tx, *in.MechanicID, "mechanic"); err != nil {
				return err
			}
		}
		return s.insert(tx, actor, &order, "order created")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, order.ID)
}

// CreateFromOffer opens the single order of an accepted or scheduled offer.
func (s *OrderService) CreateFromOffer(ctx context.Context, actor *models.User, offerID uint, in FromOfferInput) (*OrderView, error) {
	var order models.Order
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, offerID)
		if err != nil {
			return err
		}
		if !lifecycle.CanConvertToOrder(offer.Status) {
			return apperr.Validation("offer %d is %s; only accepted or scheduled offers become orders", offerID, offer.Status)
		}

		var existing int64
		if err := tx.Model(&models.Order{}).Where("offer_id = ?", offerID).Count(&existing).Error; err != nil {
			return apperr.Wrap(err, "order", "create")
		}
		if existing > 0 {
			return apperr.Conflict("order", "offer %d already has an order", offerID)
		}

		mechanic := offer.AgentID
		if in.MechanicID != nil {
			mechanic = in.MechanicID
		}
		if mechanic != nil {
			if err := requireStaff(tx, *mechanic, "mechanic"); err != nil {
				return err
			}
		}

		id := offer.ID
		order = models.Order{
			CustomerID: offer.CustomerID,
			VehicleID:  offer.VehicleID,
			OfferID:    &id,
			MechanicID: mechanic,
			Comment:    strings.TrimSpace(in.Comment),
			Status:     models.OrderCreated,
			OrderDate:  time.Now(),
		}
		if offer.AppointmentAt != nil {
			order.OrderDate = *offer.AppointmentAt
		}
		return s.insert(tx, actor, &order, "order created from offer")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, order.ID)
}

func (s *OrderService) insert(tx *gorm.DB, actor *models.User, order *models.Order, desc string) error {
	for attempt := 0; ; attempt++ {
		order.OrderNumber = NewOrderNumber()
		var taken int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", order.OrderNumber).Count(&taken).Error; err != nil {
			return apperr.Wrap(err, "order", "create")
		}
		if taken == 0 {
			break
		}
		if attempt+1 >= orderNumberAttempts {
			return apperr.Conflict("order", "could not allocate an order number")
		}
	}

	order.NetAmount = decimal.Zero
	order.GrossAmount = decimal.Zero
	if err := tx.Create(order).Error; err != nil {
		if database.IsDuplicate(err) {
			return duplicateOrder(order)
		}
		return apperr.Wrap(err, "order", "create")
	}
	return audit.Write(tx, audit.Entry{
		Actor:       actor,
		EntityType:  "order",
		EntityID:    order.ID,
		Action:      models.AuditActionCreate,
		Description: desc,
		After:       map[string]any{"order_number": order.OrderNumber, "offer_id": order.OfferID},
	})
}

// duplicateOrder describes a unique violation on insert. Without an offer only
// the order number can collide.
func duplicateOrder(order *models.Order) error {
	if order.OfferID == nil {
		return apperr.Conflict("order", "order number %s is already taken", order.OrderNumber)
	}
	return apperr.Conflict("order", "offer %d already has an order, or order number %s is taken", *order.OfferID, order.OrderNumber)
}

func (s *OrderService) Update(ctx context.Context, actor *models.User, id uint, in OrderUpdate) (*OrderView, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}
		if !lifecycle.OrderEditable(order.Status) {
			return apperr.Validation("order %s is completed and can no longer change", order.OrderNumber)
		}

		if in.Comment != nil {
			order.Comment = strings.TrimSpace(*in.Comment)
		}
		if in.MechanicID != nil {
			if err := requireStaff(tx, *in.MechanicID, "mechanic"); err != nil {
				return err
			}
			order.MechanicID = in.MechanicID
		}
		if in.OrderDate != nil {
			order.OrderDate = *in.OrderDate
		}

		err = tx.Model(order).Select("comment", "mechanic_id", "order_date").Updates(order).Error
		return apperr.Wrap(err, "order", "update")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// SetStatus drives the order state machine.
func (s *OrderService) SetStatus(ctx context.Context, actor *models.User, id uint, to models.OrderStatus) (*OrderView, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}
		prev := order.Status
		if err := lifecycle.ApplyOrder(order, to); err != nil {
			return err
		}
		if err := tx.Model(order).Update("status", order.Status).Error; err != nil {
			return apperr.Wrap(err, "order", "set status")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionTransition,
			Description: "order " + string(prev) + " -> " + string(to),
			Before:      map[string]any{"status": prev},
			After:       map[string]any{"status": to},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// Delete refuses orders that still have items.
func (s *OrderService) Delete(ctx context.Context, actor *models.User, id uint) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}

		var items int64
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", id).Count(&items).Error; err != nil {
			return apperr.Wrap(err, "order", "delete")
		}
		if items > 0 {
			return apperr.Conflict("order", "order %s still has %d items", order.OrderNumber, items)
		}

		if err := tx.Delete(&models.Order{}, id).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperr.Conflict("order", "order %s is still referenced", order.OrderNumber)
			}
			return apperr.Wrap(err, "order", "delete")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "order",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: "order deleted",
			Before:      map[string]any{"order_number": order.OrderNumber, "status": order.Status},
		})
	})
}

// Recompute re-aggregates the totals of one order on demand.
func (s *OrderService) Recompute(ctx context.Context, actor *models.User, id uint) (*OrderView, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		_, err := RecomputeTotals(tx, id, s.vat)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

func lockOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := database.ForUpdate(tx).First(&order, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, apperr.Wrap(err, "order", "lock")
	}
	return &order, nil
}

func itemCounts(db *gorm.DB, orderIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		OrderID uint
		Count   int
	}
	err := db.Model(&models.OrderItem{}).
		Select("order_id, COUNT(*) AS count").
		Where("order_id IN ?", orderIDs).
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "order item", "count")
	}
	for _, r := range rows {
		out[r.OrderID] = r.Count
	}
	return out, nil
}
