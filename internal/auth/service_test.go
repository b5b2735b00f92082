package auth

import (
	"context"
	"testing"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"
	"workshop-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	svc := NewService(db, testSecret, time.Hour)

	// pre-created by an admin without a credential
	mechanic := testutil.CreateUser(t, db, "mech@example.com", models.RoleMechanic)

	_, _, err := svc.Login(ctx, "mech@example.com", "whatever1")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	u, err := svc.Register(ctx, Registration{Email: "MECH@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, mechanic.ID, u.ID)
	assert.Equal(t, models.RoleMechanic, u.Role, "registration keeps the admin-assigned role")

	_, err = svc.Register(ctx, Registration{Email: "mech@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	token, logged, err := svc.Login(ctx, "mech@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, mechanic.ID, logged.ID)

	ok, verified := NewVerifier(testSecret, NewUsers(db)).Verify(ctx, token)
	assert.True(t, ok)
	require.NotNil(t, verified)
	assert.Equal(t, mechanic.ID, verified.ID)

	_, _, err = svc.Login(ctx, "mech@example.com", "wrong-pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	// unknown email becomes a customer
	c, err := svc.Register(ctx, Registration{Name: "New Driver", Email: "new@example.com", Password: "drive-safe"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, c.Role)

	_, err = svc.Register(ctx, Registration{Email: "nameless@example.com", Password: "drive-safe"})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}
