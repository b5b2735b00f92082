package apperr

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler is the fiber ErrorHandler. Unexpected failures are logged and their
// detail is still returned so callers know what to retry.
func Handler(c *fiber.Ctx, err error) error {
	status, code := Status(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusGatewayTimeout {
		zap.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
}
