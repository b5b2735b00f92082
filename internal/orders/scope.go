package orders

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"gorm.io/gorm"
)

// ownedBy restricts customers to their own rows; staff see everything.
func ownedBy(q *gorm.DB, actor *models.User, column string) *gorm.DB {
	if actor != nil && actor.Role == models.RoleCustomer {
		return q.Where(column+" = ?", actor.ID)
	}
	return q
}

// canSee reports whether actor may read a row owned by customerID.
func canSee(actor *models.User, customerID uint) bool {
	return actor == nil || actor.Role != models.RoleCustomer || actor.ID == customerID
}

func requireStaff(tx *gorm.DB, id uint, field string) error {
	var u models.User
	if err := tx.Select("id", "role").First(&u, id).Error; err != nil {
		if database.IsNotFound(err) {
			return apperr.Validation("%s %d does not exist", field, id)
		}
		return apperr.Wrap(err, "user", "get")
	}
	if !u.Role.IsStaff() {
		return apperr.Validation("%s %d is not a staff member", field, id)
	}
	return nil
}

func loadVehicle(tx *gorm.DB, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := tx.First(&v, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.Validation("vehicle %d does not exist", id)
		}
		return nil, apperr.Wrap(err, "vehicle", "get")
	}
	return &v, nil
}
