package fleet

import (
	"workshop-backend/internal/auth"
	"workshop-backend/internal/binding"

	"github.com/gofiber/fiber/v2"
)

type CreateVehicleRequest struct {
	OwnerID      uint   `json:"owner_id"`
	LicensePlate string `json:"license_plate" validate:"required,max=20"`
	VIN          string `json:"vin" validate:"required,min=11,max=17"`
	Make         string `json:"make" validate:"required,max=50"`
	Model        string `json:"model" validate:"required,max=50"`
	Year         int    `json:"year" validate:"omitempty,min=1900"`
	FuelTypeID   *uint  `json:"fuel_type_id"`
	Odometer     int    `json:"odometer" validate:"min=0"`
}

type UpdateVehicleRequest struct {
	OwnerID    *uint   `json:"owner_id"`
	FuelTypeID *uint   `json:"fuel_type_id"`
	Odometer   *int    `json:"odometer" validate:"omitempty,min=0"`
	Make       *string `json:"make" validate:"omitempty,max=50"`
	Model      *string `json:"model" validate:"omitempty,max=50"`
}

// GET /api/vehicles?owner_id=3&q=abc
func ListVehiclesHandler(svc *VehicleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := binding.QueryID(c, "owner_id")
		if err != nil {
			return err
		}
		f := VehicleFilter{Search: c.Query("q")}
		if ownerID != nil {
			f.OwnerID = *ownerID
		}
		views, err := svc.List(c.UserContext(), auth.Actor(c), f)
		if err != nil {
			return err
		}
		return c.JSON(views)
	}
}

// GET /api/vehicles/:id
func GetVehicleHandler(svc *VehicleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		view, err := svc.Get(c.UserContext(), auth.Actor(c), id)
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

// POST /api/vehicles
func CreateVehicleHandler(svc *VehicleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateVehicleRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		view, err := svc.Create(c.UserContext(), auth.Actor(c), VehicleInput(body))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	}
}

// PUT /api/vehicles/:id
func UpdateVehicleHandler(svc *VehicleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := binding.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateVehicleRequest
		if err := binding.Body(c, &body); err != nil {
			return err
		}
		view, err := svc.Update(c.UserContext(), auth.Actor(c), id, VehicleUpdate(body))
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

// DELETE /api/vehicles/:id
func DeleteVehicleHandler(svc *VehicleService) fiber.Handler {
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
