package models

type Role string

const (
	RoleMechanic Role = "mechanic"
	RoleOwner    Role = "owner"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

var AllRoles = []Role{RoleMechanic, RoleOwner, RoleCustomer, RoleAdmin}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role works inside the shop.
func (r Role) IsStaff() bool {
	return r == RoleMechanic || r == RoleOwner || r == RoleAdmin
}

// RoleRecord is the roles reference table.
type RoleRecord struct {
	Code Role   `gorm:"primaryKey;size:20" json:"code"`
	Name string `gorm:"size:50;not null" json:"name"`
}

func (RoleRecord) TableName() string { return "roles" }

var RoleNames = map[Role]string{
	RoleMechanic: "Mechanic",
	RoleOwner:    "Owner",
	RoleCustomer: "Customer",
	RoleAdmin:    "Admin",
}
