package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenTable map[string]*models.User

func (t tokenTable) Verify(_ context.Context, token string) (bool, *models.User) {
	u, ok := t[token]
	return ok, u
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status, code := apperr.Status(err)
			return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
		},
	})

	tokens := tokenTable{
		"mechanic": registeredUser(1, models.RoleMechanic),
		"customer": registeredUser(2, models.RoleCustomer),
	}

	api := app.Group("/api", Authenticate(tokens))
	api.Post("/orders/:id/items", Require(DefaultPolicy, OpOrderItemsCreate), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	api.Get("/me", MeHandler(DefaultPolicy))
	return app
}

func TestMiddlewareOutcomes(t *testing.T) {
	app := newTestApp()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no credential", "", fiber.StatusUnauthorized},
		{"malformed header", "Token mechanic", fiber.StatusUnauthorized},
		{"unknown token", "Bearer nobody", fiber.StatusUnauthorized},
		{"role outside policy", "Bearer customer", fiber.StatusForbidden},
		{"allowed role", "Bearer mechanic", fiber.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/orders/1/items", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestMeHandler(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer customer")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
