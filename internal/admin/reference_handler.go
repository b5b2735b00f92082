package admin

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/roles
func ListRolesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var roles []models.RoleRecord
		if err := db.WithContext(c.UserContext()).Order("code asc").Find(&roles).Error; err != nil {
			return apperr.Wrap(err, "role", "list")
		}
		return c.JSON(roles)
	}
}

// GET /api/statuses?scope=order
func ListStatusesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.WithContext(c.UserContext())
		if scope := c.Query("scope"); scope != "" {
			switch models.StatusScope(scope) {
			case models.StatusScopeOffer, models.StatusScopeOrder, models.StatusScopeSupplierOrder:
			default:
				return apperr.Validation("unknown status scope %q", scope)
			}
			q = q.Where("scope = ?", scope)
		}

		var statuses []models.Status
		if err := q.Order("scope asc, id asc").Find(&statuses).Error; err != nil {
			return apperr.Wrap(err, "status", "list")
		}
		return c.JSON(statuses)
	}
}

// GET /api/fuel-types
func ListFuelTypesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fuels []models.FuelType
		if err := db.WithContext(c.UserContext()).Order("name asc").Find(&fuels).Error; err != nil {
			return apperr.Wrap(err, "fuel type", "list")
		}
		return c.JSON(fuels)
	}
}
