package logger

import (
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init builds the process logger and installs it as the zap global.
func Init(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.LogMode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

// UserIDFunc extracts the authenticated user id from the request, if any.
type UserIDFunc func(c *fiber.Ctx) (uint, bool)

// RequestLogger writes one line per handled request.
func RequestLogger(userID UserIDFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// the ErrorHandler has not written the response yet
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = apperr.Status(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if userID != nil {
			if id, ok := userID(c); ok {
				fields = append(fields, zap.Uint("user_id", id))
			}
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		zap.L().Info("request", fields...)
		return err
	}
}
