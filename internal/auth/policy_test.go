package auth

import (
	"testing"

	"workshop-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func rolePtr(r models.Role) *models.Role { return &r }

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name     string
		required []models.Role
		caller   *models.Role
		want     Decision
	}{
		{"no caller", []models.Role{models.RoleAdmin}, nil, Deny},
		{"no caller, open operation", nil, nil, Deny},
		{"open operation", nil, rolePtr(models.RoleCustomer), Allow},
		{"member", []models.Role{models.RoleAdmin, models.RoleOwner}, rolePtr(models.RoleOwner), Allow},
		{"not a member", []models.Role{models.RoleAdmin, models.RoleOwner}, rolePtr(models.RoleMechanic), Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.required, tc.caller))
		})
	}
}

func TestPolicyUnknownOperationDenied(t *testing.T) {
	assert.Equal(t, Deny, DefaultPolicy.Check("nope.unknown", rolePtr(models.RoleAdmin)))
}

func TestDefaultPolicyTable(t *testing.T) {
	cases := []struct {
		op   Operation
		role models.Role
		want Decision
	}{
		{OpOrderItemsCreate, models.RoleMechanic, Allow},
		{OpOrderItemsCreate, models.RoleCustomer, Deny},
		{OpOffersCreate, models.RoleCustomer, Allow},
		{OpOffersSetStatus, models.RoleCustomer, Deny},
		{OpOffersSetStatus, models.RoleOwner, Allow},
		{OpOffersDelete, models.RoleOwner, Deny},
		{OpOrdersDelete, models.RoleAdmin, Allow},
		{OpProductsAssign, models.RoleMechanic, Deny},
		{OpSupplierOrdersUpdate, models.RoleMechanic, Allow},
		{OpUsersCreate, models.RoleOwner, Deny},
		{OpStatusesList, models.RoleCustomer, Allow},
		{OpAuditLogsList, models.RoleMechanic, Deny},
	}
	for _, tc := range cases {
		got := DefaultPolicy.Check(tc.op, rolePtr(tc.role))
		assert.Equal(t, tc.want, got, "%s as %s", tc.op, tc.role)
	}
}

func TestEveryPolicyRoleIsKnown(t *testing.T) {
	for op, roles := range DefaultPolicy {
		for _, r := range roles {
			assert.True(t, r.Valid(), "operation %s lists unknown role %q", op, r)
		}
	}
}

func TestAllowed(t *testing.T) {
	ops := DefaultPolicy.Allowed(models.RoleCustomer)
	assert.Contains(t, ops, OpOffersCreate)
	assert.NotContains(t, ops, OpOrderItemsCreate)
	assert.Len(t, DefaultPolicy.Allowed(models.RoleAdmin), len(DefaultPolicy))
}
