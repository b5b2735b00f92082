package auth

import "workshop-backend/internal/models"

// Operation names one API operation in the policy table.
type Operation string

const (
	OpMe Operation = "auth.me"

	OpUsersList   Operation = "users.list"
	OpUsersGet    Operation = "users.get"
	OpUsersCreate Operation = "users.create"
	OpUsersUpdate Operation = "users.update"

	OpRolesList     Operation = "roles.list"
	OpStatusesList  Operation = "statuses.list"
	OpFuelTypesList Operation = "fuel_types.list"

	OpVehiclesList   Operation = "vehicles.list"
	OpVehiclesGet    Operation = "vehicles.get"
	OpVehiclesCreate Operation = "vehicles.create"
	OpVehiclesUpdate Operation = "vehicles.update"
	OpVehiclesDelete Operation = "vehicles.delete"

	OpOffersList      Operation = "offers.list"
	OpOffersGet       Operation = "offers.get"
	OpOffersCreate    Operation = "offers.create"
	OpOffersUpdate    Operation = "offers.update"
	OpOffersSetStatus Operation = "offers.set_status"
	OpOffersDelete    Operation = "offers.delete"

	OpOrdersList      Operation = "orders.list"
	OpOrdersGet       Operation = "orders.get"
	OpOrdersCreate    Operation = "orders.create"
	OpOrdersUpdate    Operation = "orders.update"
	OpOrdersSetStatus Operation = "orders.set_status"
	OpOrdersDelete    Operation = "orders.delete"
	OpOrdersRecompute Operation = "orders.recompute"

	OpOrderItemsList   Operation = "order_items.list"
	OpOrderItemsCreate Operation = "order_items.create"
	OpOrderItemsUpdate Operation = "order_items.update"
	OpOrderItemsDelete Operation = "order_items.delete"

	OpProductsList   Operation = "products.list"
	OpProductsGet    Operation = "products.get"
	OpProductsCreate Operation = "products.create"
	OpProductsUpdate Operation = "products.update"
	OpProductsDelete Operation = "products.delete"
	OpProductsImport Operation = "products.import"
	OpProductsAssign Operation = "products.assign_categories"

	OpCategoriesList   Operation = "product_categories.list"
	OpCategoriesTree   Operation = "product_categories.tree"
	OpCategoriesCreate Operation = "product_categories.create"
	OpCategoriesUpdate Operation = "product_categories.update"
	OpCategoriesDelete Operation = "product_categories.delete"

	OpSupplierOrdersList   Operation = "supplier_orders.list"
	OpSupplierOrdersGet    Operation = "supplier_orders.get"
	OpSupplierOrdersCreate Operation = "supplier_orders.create"
	OpSupplierOrdersUpdate Operation = "supplier_orders.update"
	OpSupplierOrdersDelete Operation = "supplier_orders.delete"

	OpAuditLogsList Operation = "audit_logs.list"
)

// Policy maps every operation to the roles allowed to call it. An empty role
// set means any authenticated caller.
type Policy map[Operation][]models.Role

var (
	anyRole    = []models.Role{}
	staff      = []models.Role{models.RoleAdmin, models.RoleOwner, models.RoleMechanic}
	management = []models.Role{models.RoleAdmin, models.RoleOwner}
	adminOnly  = []models.Role{models.RoleAdmin}
)

// DefaultPolicy is the role table enforced by the API.
var DefaultPolicy = Policy{
	OpMe: anyRole,

	OpUsersList:   management,
	OpUsersGet:    management,
	OpUsersCreate: adminOnly,
	OpUsersUpdate: adminOnly,

	OpRolesList:     anyRole,
	OpStatusesList:  anyRole,
	OpFuelTypesList: anyRole,

	// customers are scoped to their own vehicles by the service
	OpVehiclesList:   anyRole,
	OpVehiclesGet:    anyRole,
	OpVehiclesCreate: {models.RoleAdmin, models.RoleOwner, models.RoleCustomer},
	OpVehiclesUpdate: management,
	OpVehiclesDelete: management,

	OpOffersList:      anyRole,
	OpOffersGet:       anyRole,
	OpOffersCreate:    {models.RoleAdmin, models.RoleOwner, models.RoleCustomer},
	OpOffersUpdate:    management,
	OpOffersSetStatus: management,
	OpOffersDelete:    adminOnly,

	OpOrdersList:      anyRole,
	OpOrdersGet:       anyRole,
	OpOrdersCreate:    management,
	OpOrdersUpdate:    staff,
	OpOrdersSetStatus: staff,
	OpOrdersDelete:    adminOnly,
	OpOrdersRecompute: adminOnly,

	OpOrderItemsList:   staff,
	OpOrderItemsCreate: staff,
	OpOrderItemsUpdate: staff,
	OpOrderItemsDelete: staff,

	OpProductsList:   anyRole,
	OpProductsGet:    anyRole,
	OpProductsCreate: management,
	OpProductsUpdate: management,
	OpProductsDelete: management,
	OpProductsImport: management,
	OpProductsAssign: management,

	OpCategoriesList:   anyRole,
	OpCategoriesTree:   anyRole,
	OpCategoriesCreate: management,
	OpCategoriesUpdate: management,
	OpCategoriesDelete: management,

	OpSupplierOrdersList:   staff,
	OpSupplierOrdersGet:    staff,
	OpSupplierOrdersCreate: staff,
	OpSupplierOrdersUpdate: staff,
	OpSupplierOrdersDelete: management,

	OpAuditLogsList: management,
}

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Authorize is the guard decision: deny without a caller role, deny when the
// required set is non-empty and does not contain the caller's role.
func Authorize(required []models.Role, caller *models.Role) Decision {
	if caller == nil {
		return Deny
	}
	if len(required) == 0 {
		return Allow
	}
	for _, r := range required {
		if r == *caller {
			return Allow
		}
	}
	return Deny
}

// Check looks the operation up and applies Authorize. Unknown operations are
// denied.
func (p Policy) Check(op Operation, caller *models.Role) Decision {
	required, ok := p[op]
	if !ok {
		return Deny
	}
	return Authorize(required, caller)
}

// Allowed lists the operations the role may call; used by /auth/me.
func (p Policy) Allowed(role models.Role) []Operation {
	out := make([]Operation, 0, len(p))
	for op := range p {
		if p.Check(op, &role) == Allow {
			out = append(out, op)
		}
	}
	return out
}
