package inventory

import (
	"context"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/database"
	"workshop-backend/internal/lifecycle"
	"workshop-backend/internal/models"

	"gorm.io/gorm"
)

type SupplierOrderInput struct {
	SKU       string
	Quantity  int
	OrderedAt *time.Time
	AgentID   *uint
}

type SupplierOrderUpdate struct {
	Quantity *int
	Status   *models.SupplierOrderStatus
}

type SupplierOrderFilter struct {
	SKU    string
	Status models.SupplierOrderStatus
}

type SupplierOrderView struct {
	ID          uint                       `json:"id"`
	SKU         string                     `json:"sku"`
	ProductName string                     `json:"product_name"`
	AgentID     uint                       `json:"agent_id"`
	AgentName   string                     `json:"agent_name"`
	Quantity    int                        `json:"quantity"`
	OrderedAt   string                     `json:"ordered_at"`
	Status      models.SupplierOrderStatus `json:"status"`
	StatusName  string                     `json:"status_name"`
	ReceivedAt  *string                    `json:"received_at"`
}

type SupplierOrderService struct {
	db *gorm.DB
}

func NewSupplierOrderService(db *gorm.DB) *SupplierOrderService {
	return &SupplierOrderService{db: db}
}

func (s *SupplierOrderService) List(ctx context.Context, f SupplierOrderFilter) ([]SupplierOrderView, error) {
	q := s.db.WithContext(ctx).Preload("Product").Preload("Agent")
	if f.SKU != "" {
		q = q.Where("product_id = ?", models.NormalizeSKU(f.SKU))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var orders []models.SupplierOrder
	if err := q.Order("ordered_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, apperr.Wrap(err, "supplier order", "list")
	}
	out := make([]SupplierOrderView, 0, len(orders))
	for i := range orders {
		out = append(out, newSupplierOrderView(&orders[i]))
	}
	return out, nil
}

func (s *SupplierOrderService) Get(ctx context.Context, id uint) (*SupplierOrderView, error) {
	return s.view(s.db.WithContext(ctx), id)
}

// Create books a pending restock. The ordering agent defaults to the caller.
func (s *SupplierOrderService) Create(ctx context.Context, actor *models.User, in SupplierOrderInput) (*SupplierOrderView, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be greater than 0")
	}
	sku := models.NormalizeSKU(in.SKU)

	so := models.SupplierOrder{
		ProductID: sku,
		AgentID:   actor.ID,
		Quantity:  in.Quantity,
		OrderedAt: time.Now(),
		Status:    models.SupplierOrderPending,
	}
	if in.AgentID != nil {
		so.AgentID = *in.AgentID
	}
	if in.OrderedAt != nil {
		so.OrderedAt = *in.OrderedAt
	}

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Select("id", "type").First(&p, "id = ?", sku).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("product", sku)
			}
			return apperr.Wrap(err, "product", "get")
		}
		if p.Type == models.ProductTypeService {
			return apperr.Validation("%s is a service and cannot be restocked", sku)
		}

		var agent models.User
		if err := tx.Select("id", "role").First(&agent, so.AgentID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.Validation("agent %d does not exist", so.AgentID)
			}
			return apperr.Wrap(err, "user", "get")
		}
		if !agent.Role.IsStaff() {
			return apperr.Validation("agent %d is not a staff member", so.AgentID)
		}

		if err := tx.Create(&so).Error; err != nil {
			return apperr.Wrap(err, "supplier order", "create")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "supplier_order",
			EntityID:    so.ID,
			Action:      models.AuditActionCreate,
			Description: "supplier order created",
			After:       so,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, so.ID)
}

// Update changes quantity or status. The row is locked and the stored status
// compared with the requested one, so stock is credited only on the call that
// newly enters Received; repeating "received" is a no-op.
func (s *SupplierOrderService) Update(ctx context.Context, actor *models.User, id uint, in SupplierOrderUpdate) (*SupplierOrderView, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var so models.SupplierOrder
		if err := database.ForUpdate(tx).First(&so, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("supplier order", id)
			}
			return apperr.Wrap(err, "supplier order", "get")
		}
		prev := so.Status

		if in.Quantity != nil && *in.Quantity != so.Quantity {
			if prev != models.SupplierOrderPending {
				return apperr.Validation("supplier order %d is %s; quantity can only change while pending", id, prev)
			}
			if *in.Quantity <= 0 {
				return apperr.Validation("quantity must be greater than 0")
			}
			so.Quantity = *in.Quantity
		}

		next := prev
		if in.Status != nil {
			next = *in.Status
		}
		if err := lifecycle.CheckSupplierOrder(prev, next); err != nil {
			return err
		}
		so.Status = next

		credit := lifecycle.CreditsStock(prev, next)
		if credit {
			now := time.Now()
			so.ReceivedAt = &now
		}

		err := tx.Model(&so).Select("quantity", "status", "received_at").Updates(&so).Error
		if err != nil {
			return apperr.Wrap(err, "supplier order", "update")
		}

		if prev != next {
			if err := audit.Write(tx, audit.Entry{
				Actor:       actor,
				EntityType:  "supplier_order",
				EntityID:    so.ID,
				Action:      models.AuditActionTransition,
				Description: "supplier order " + string(prev) + " -> " + string(next),
				Before:      map[string]any{"status": prev},
				After:       map[string]any{"status": next},
			}); err != nil {
				return err
			}
		}

		if credit {
			return AdjustStock(tx, Adjustment{
				SKU:    so.ProductID,
				Delta:  so.Quantity,
				Actor:  actor,
				Reason: "supplier order received",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a supplier order that has not been received.
func (s *SupplierOrderService) Delete(ctx context.Context, actor *models.User, id uint) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var so models.SupplierOrder
		if err := database.ForUpdate(tx).First(&so, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("supplier order", id)
			}
			return apperr.Wrap(err, "supplier order", "get")
		}
		if so.Status == models.SupplierOrderReceived {
			return apperr.Conflict("supplier order", "%d was received and already credited to stock", id)
		}
		if err := tx.Delete(&so).Error; err != nil {
			return apperr.Wrap(err, "supplier order", "delete")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "supplier_order",
			EntityID:    so.ID,
			Action:      models.AuditActionDelete,
			Description: "supplier order deleted",
			Before:      so,
		})
	})
}

func (s *SupplierOrderService) view(db *gorm.DB, id uint) (*SupplierOrderView, error) {
	var so models.SupplierOrder
	if err := db.Preload("Product").Preload("Agent").First(&so, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("supplier order", id)
		}
		return nil, apperr.Wrap(err, "supplier order", "get")
	}
	v := newSupplierOrderView(&so)
	return &v, nil
}

func newSupplierOrderView(so *models.SupplierOrder) SupplierOrderView {
	v := SupplierOrderView{
		ID:         so.ID,
		SKU:        so.ProductID,
		AgentID:    so.AgentID,
		Quantity:   so.Quantity,
		OrderedAt:  so.OrderedAt.Format("2006-01-02 15:04:05"),
		Status:     so.Status,
		StatusName: models.StatusName(models.StatusScopeSupplierOrder, string(so.Status)),
	}
	if so.Product != nil {
		v.ProductName = so.Product.Name
	}
	if so.Agent != nil {
		v.AgentName = so.Agent.Name
	}
	if so.ReceivedAt != nil {
		s := so.ReceivedAt.Format("2006-01-02 15:04:05")
		v.ReceivedAt = &s
	}
	return v
}
