package admin

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"
	"workshop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDiscount(t *testing.T) {
	assert.NoError(t, checkDiscount(decimal.Zero))
	assert.NoError(t, checkDiscount(decimal.NewFromInt(100)))
	assert.ErrorIs(t, checkDiscount(decimal.NewFromInt(-1)), apperr.ErrValidationFailed)
	assert.ErrorIs(t, checkDiscount(decimal.RequireFromString("100.01")), apperr.ErrValidationFailed)
}

func TestUserAdministration(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	svc := NewUserService(db)

	// created without a credential, registers later
	u, err := svc.Create(ctx, admin, UserInput{
		Name:  "Jo Driver",
		Email: " Jo@Example.com ",
		Role:  models.RoleCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", u.Email)
	assert.False(t, u.Registered())

	_, err = svc.Create(ctx, admin, UserInput{Name: "Dup", Email: "jo@example.com", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	short := "abc"
	_, err = svc.Create(ctx, admin, UserInput{Name: "Pw", Email: "pw@example.com", Role: models.RoleMechanic, Password: &short})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	discount := decimal.NewFromInt(15)
	role := models.RoleOwner
	updated, err := svc.Update(ctx, admin, u.ID, UserUpdate{DiscountPercent: &discount, Role: &role})
	require.NoError(t, err)
	assert.True(t, updated.DiscountPercent.Equal(discount))
	assert.Equal(t, models.RoleOwner, updated.Role)

	tooMuch := decimal.NewFromInt(150)
	_, err = svc.Update(ctx, admin, u.ID, UserUpdate{DiscountPercent: &tooMuch})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	demote := models.RoleCustomer
	_, err = svc.Update(ctx, admin, admin.ID, UserUpdate{Role: &demote})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	owners, err := svc.List(ctx, UserFilter{Role: models.RoleOwner})
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, u.ID, owners[0].ID)
}

func TestReferenceHandlers(t *testing.T) {
	db := testutil.SetupDB(t)
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler})
	app.Get("/roles", ListRolesHandler(db))
	app.Get("/statuses", ListStatusesHandler(db))
	app.Get("/fuel-types", ListFuelTypesHandler(db))

	var roles []models.RoleRecord
	getJSON(t, app, "/roles", fiber.StatusOK, &roles)
	assert.Len(t, roles, len(models.AllRoles))

	var statuses []models.Status
	getJSON(t, app, "/statuses?scope=order", fiber.StatusOK, &statuses)
	assert.Len(t, statuses, 4)
	for _, s := range statuses {
		assert.Equal(t, models.StatusScopeOrder, s.Scope)
	}

	getJSON(t, app, "/statuses?scope=nope", fiber.StatusBadRequest, nil)

	var fuels []models.FuelType
	getJSON(t, app, "/fuel-types", fiber.StatusOK, &fuels)
	assert.Len(t, fuels, len(models.DefaultFuelTypes))
}

func getJSON(t *testing.T, app *fiber.App, path string, status int, out any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, status, resp.StatusCode)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}
