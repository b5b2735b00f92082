package orders

import (
	"time"

	"workshop-backend/internal/auth"
	"workshop-backend/internal/binding"
	"workshop-backend/internal/lifecycle"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateOfferRequest struct {
	VehicleID        uint       `json:"vehicle_id" validate:"required,gt=0"`
	CustomerID       *uint      `json:"customer_id" validate:"omitempty,gt=0"`
	IssueDescription string     `json:"issue_description" validate:"required"`
	RequestedAt      *time.Time `json:"requested_at"`
	Images           []string   `json:"images" validate:"omitempty,dive,url"`
}

type UpdateOfferRequest struct {
	IssueDescription *string    `json:"issue_description"`
	AdminComment     *string    `json:"admin_comment"`
	AppointmentAt    *time.Time `json:"appointment_at"`
	AgentID          *uint      `json:"agent_id" validate:"omitempty,gt=0"`
	AddImages        []string   `json:"add_images" validate:"omitempty,dive,url"`
}

type OfferStatusRequest struct {
	Status        string     `json:"status" validate:"required"`
	AgentID       *uint      `json:"agent_id" validate:"omitempty,gt=0"`
	AppointmentAt *time.Time `json:"appointment_at"`
}

type CreateOrderRequest struct {
	VehicleID  uint       `json:"vehicle_id" validate:"required,gt=0"`
	CustomerID *uint      `json:"customer_id" validate:"omitempty,gt=0"`
	MechanicID *uint      `json:"mechanic_id" validate:"omitempty,gt=0"`
	Comment    string     `json:"comment"`
	OrderDate  *time.Time `json:"order_date"`
}

type CreateOrderFromOfferRequest struct {
	MechanicID *uint  `json:"mechanic_id" validate:"omitempty,gt=0"`
	Comment    string `json:"comment"`
}

type UpdateOrderRequest struct {
	Comment    *string    `json:"comment"`
	MechanicID *uint      `json:"mechanic_id" validate:"omitempty,gt=0"`
	OrderDate  *time.Time `json:"order_date"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateItemRequest struct {
	SKU       string           `json:"sku" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Comment   string           `json:"comment" validate:"max=255"`
}

type UpdateItemRequest struct {
	SKU       *string          `json:"sku"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Comment   *string          `json:"comment" validate:"omitempty,max=255"`
}

// GET /api/offers?status=received&customer_id=1&vehicle_id=2&agent_id=3
func ListOffersHandler(svc *OfferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f OfferFilter
		if raw := c.Query("status"); raw != "" {
			st, err := lifecycle.ParseOfferStatus(raw)
			if err != nil {
				return err
			}
			f.Status = st
		}
		var err error
		if f.CustomerID, err = binding.QueryID(c, "customer_id"); err != nil {
			return err
		}
		if f.VehicleID, err = binding.QueryID(c, "vehicle_id"); err != nil {
			return err
		}
		if f.AgentID, err = binding.QueryID(c, "agent_id"); err != nil {
			return err
		}

		offers, err := svc.List(c.UserContext(), auth.Actor(c), f)
		if err != nil {
			return err
		}
		return c.JSON(offers)
	}
}

// GET /api/offers/:id
func GetOfferHandler(svc *OfferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		offer, err := svc.Get(c.UserContext(), auth.Actor(c), id)
		if err != nil {
			return err
		}
		return c.JSON(offer)
	}
}

// POST /api/offers
func CreateOfferHandler(svc *OfferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOfferRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		offer, err := svc.Create(c.UserContext(), auth.Actor(c), OfferInput{
			VehicleID:        body.VehicleID,
			CustomerID:       body.CustomerID,
			IssueDescription: body.IssueDescription,
			RequestedAt:      body.RequestedAt,
			Images:           body.Images,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(offer)
	}
}

// PUT /api/offers/:id
func UpdateOfferHandler(svc *OfferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateOfferRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		offer, err := svc.Update(c.UserContext(), auth.Actor(c), id, OfferUpdate{
			IssueDescription: body.IssueDescription,
			AdminComment:     body.AdminComment,
			AppointmentAt:    body.AppointmentAt,
			AgentID:          body.AgentID,
			AddImages:        body.AddImages,
		})
		if err != nil {
			return err
		}
		return c.JSON(offer)
	}
}

// PUT /api/offers/:id/status
func SetOfferStatusHandler(svc *OfferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body OfferStatusRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		to, err := lifecycle.ParseOfferStatus(body.Status)
		if err != nil {
			return err
		}
		offer, err := svc.SetStatus(c.UserContext(), auth.Actor(c), id, lifecycle.OfferChange{
			To:            to,
			AgentID:       body.AgentID,
			AppointmentAt: body.AppointmentAt,
		})
		if err != nil {
			return err
		}
		return c.JSON(offer)
	}
}

// DELETE /api/offers/:id
func DeleteOfferHandler(svc *OfferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), auth.Actor(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/orders?status=in_progress&customer_id=1&vehicle_id=2&mechanic_id=3
func ListOrdersHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f OrderFilter
		if raw := c.Query("status"); raw != "" {
			st, err := lifecycle.ParseOrderStatus(raw)
			if err != nil {
				return err
			}
			f.Status = st
		}
		var err error
		if f.CustomerID, err = binding.QueryID(c, "customer_id"); err != nil {
			return err
		}
		if f.VehicleID, err = binding.QueryID(c, "vehicle_id"); err != nil {
			return err
		}
		if f.MechanicID, err = binding.QueryID(c, "mechanic_id"); err != nil {
			return err
		}

		orders, err := svc.List(c.UserContext(), auth.Actor(c), f)
		if err != nil {
			return err
		}
		return c.JSON(orders)
	}
}

// GET /api/orders/:id
func GetOrderHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		order, err := svc.Get(c.UserContext(), auth.Actor(c), id)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// POST /api/orders
func CreateOrderHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		order, err := svc.Create(c.UserContext(), auth.Actor(c), OrderInput{
			VehicleID:  body.VehicleID,
			CustomerID: body.CustomerID,
			MechanicID: body.MechanicID,
			Comment:    body.Comment,
			OrderDate:  body.OrderDate,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// POST /api/offers/:id/order
func CreateOrderFromOfferHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offerID, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body CreateOrderFromOfferRequest
		if len(c.Body()) > 0 {
			if err := binding.Body(c, &body); err != nil {
				return err
			}
		}
		order, err := svc.CreateFromOffer(c.UserContext(), auth.Actor(c), offerID, FromOfferInput{
			MechanicID: body.MechanicID,
			Comment:    body.Comment,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// PUT /api/orders/:id
func UpdateOrderHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateOrderRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		order, err := svc.Update(c.UserContext(), auth.Actor(c), id, OrderUpdate{
			Comment:    body.Comment,
			MechanicID: body.MechanicID,
			OrderDate:  body.OrderDate,
		})
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// PUT /api/orders/:id/status
func SetOrderStatusHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body OrderStatusRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		to, err := lifecycle.ParseOrderStatus(body.Status)
		if err != nil {
			return err
		}
		order, err := svc.SetStatus(c.UserContext(), auth.Actor(c), id, to)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// DELETE /api/orders/:id
func DeleteOrderHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), auth.Actor(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/orders/:id/recompute
func RecomputeOrderHandler(svc *OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		order, err := svc.Recompute(c.UserContext(), auth.Actor(c), id)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// GET /api/orders/:id/items
func ListItemsHandler(svc *ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		items, err := svc.List(c.UserContext(), auth.Actor(c), id)
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// POST /api/orders/:id/items
func CreateItemHandler(svc *ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body CreateItemRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		res, err := svc.Create(c.UserContext(), auth.Actor(c), id, ItemInput{
			SKU:       body.SKU,
			Quantity:  body.Quantity,
			UnitPrice: body.UnitPrice,
			Comment:   body.Comment,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// PUT /api/order-items/:id
func UpdateItemHandler(svc *ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateItemRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		res, err := svc.Update(c.UserContext(), auth.Actor(c), id, ItemUpdate{
			SKU:       body.SKU,
			Quantity:  body.Quantity,
			UnitPrice: body.UnitPrice,
			Comment:   body.Comment,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// DELETE /api/order-items/:id
func DeleteItemHandler(svc *ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		res, err := svc.Delete(c.UserContext(), auth.Actor(c), id)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

