package logger

import (
	"net/http/httptest"
	"testing"

	"workshop-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestRequestLoggerStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, fiber.StatusOK},
		{"not found", apperr.NotFound("order", 10), fiber.StatusNotFound},
		{"validation", apperr.Validation("quantity must be greater than 0"), fiber.StatusBadRequest},
		{"conflict", apperr.Conflict("vehicle", "in use"), fiber.StatusConflict},
		{"forbidden", apperr.Forbidden("nope"), fiber.StatusForbidden},
		{"fiber error", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := observe(t)
			app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler})
			app.Use(RequestLogger(func(*fiber.Ctx) (uint, bool) { return 42, true }))
			app.Get("/orders/10", func(c *fiber.Ctx) error {
				if tc.err != nil {
					return tc.err
				}
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/orders/10", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			entries := logs.FilterMessage("request").All()
			require.Len(t, entries, 1)
			fields := entries[0].ContextMap()
			assert.EqualValues(t, tc.status, fields["status"])
			assert.EqualValues(t, 42, fields["user_id"])
			assert.Equal(t, "/orders/10", fields["path"])
		})
	}
}
