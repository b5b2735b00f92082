package inventory

import (
	"time"

	"workshop-backend/internal/auth"
	"workshop-backend/internal/binding"
	"workshop-backend/internal/lifecycle"

	"github.com/gofiber/fiber/v2"
)

type CreateSupplierOrderRequest struct {
	SKU       string     `json:"sku" validate:"required"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
	OrderedAt *time.Time `json:"ordered_at"`
	AgentID   *uint      `json:"agent_id" validate:"omitempty,gt=0"`
}

type UpdateSupplierOrderRequest struct {
	Quantity *int    `json:"quantity" validate:"omitempty,gt=0"`
	Status   *string `json:"status"`
}

// GET /api/supplier-orders?sku=P1&status=pending
func ListSupplierOrdersHandler(svc *SupplierOrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := SupplierOrderFilter{SKU: c.Query("sku")}
		if raw := c.Query("status"); raw != "" {
			st, err := lifecycle.ParseSupplierOrderStatus(raw)
			if err != nil {
				return err
			}
			f.Status = st
		}
		orders, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(orders)
	}
}

// GET /api/supplier-orders/:id
func GetSupplierOrderHandler(svc *SupplierOrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		so, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(so)
	}
}

// POST /api/supplier-orders
func CreateSupplierOrderHandler(svc *SupplierOrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplierOrderRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		so, err := svc.Create(c.UserContext(), auth.Actor(c), SupplierOrderInput{
			SKU:       body.SKU,
			Quantity:  body.Quantity,
			OrderedAt: body.OrderedAt,
			AgentID:   body.AgentID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(so)
	}
}

// PUT /api/supplier-orders/:id
func UpdateSupplierOrderHandler(svc *SupplierOrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateSupplierOrderRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}

		in := SupplierOrderUpdate{Quantity: body.Quantity}
		if body.Status != nil {
			st, err := lifecycle.ParseSupplierOrderStatus(*body.Status)
			if err != nil {
				return err
			}
			in.Status = &st
		}

		so, err := svc.Update(c.UserContext(), auth.Actor(c), id, in)
		if err != nil {
			return err
		}
		return c.JSON(so)
	}
}

// DELETE /api/supplier-orders/:id
func DeleteSupplierOrderHandler(svc *SupplierOrderService) fiber.Handler {
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
