// Package fleet manages customer vehicles.
package fleet

import (
	"context"
	"regexp"
	"strings"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"gorm.io/gorm"
)

var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{11,17}$`)

type VehicleInput struct {
	OwnerID      uint
	LicensePlate string
	VIN          string
	Make         string
	Model        string
	Year         int
	FuelTypeID   *uint
	Odometer     int
}

type VehicleUpdate struct {
	OwnerID    *uint
	FuelTypeID *uint
	Odometer   *int
	Make       *string
	Model      *string
}

type VehicleFilter struct {
	OwnerID uint
	Search  string
}

// VehicleView is the flat read projection of a vehicle.
type VehicleView struct {
	ID           uint      `json:"id"`
	OwnerID      uint      `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	LicensePlate string    `json:"license_plate"`
	VIN          string    `json:"vin"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	FuelTypeID   *uint     `json:"fuel_type_id"`
	FuelType     string    `json:"fuel_type"`
	Odometer     int       `json:"odometer"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newVehicleView(v *models.Vehicle) VehicleView {
	view := VehicleView{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		LicensePlate: v.LicensePlate,
		VIN:          v.VIN,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		FuelTypeID:   v.FuelTypeID,
		Odometer:     v.Odometer,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.Owner != nil {
		view.OwnerName = v.Owner.Name
	}
	if v.FuelType != nil {
		view.FuelType = v.FuelType.Name
	}
	return view
}

func NormalizePlate(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

type VehicleService struct {
	db *gorm.DB
}

func NewVehicleService(db *gorm.DB) *VehicleService {
	return &VehicleService{db: db}
}

func isCustomer(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleCustomer
}

func (s *VehicleService) List(ctx context.Context, actor *models.User, f VehicleFilter) ([]VehicleView, error) {
	q := s.db.WithContext(ctx).Preload("Owner").Preload("FuelType")
	if isCustomer(actor) {
		q = q.Where("owner_id = ?", actor.ID)
	} else if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToUpper(term) + "%"
		q = q.Where("license_plate LIKE ? OR vin LIKE ? OR UPPER(make) LIKE ? OR UPPER(model) LIKE ?", like, like, like, like)
	}

	var vehicles []models.Vehicle
	if err := q.Order("license_plate asc").Find(&vehicles).Error; err != nil {
		return nil, apperr.Wrap(err, "vehicle", "list")
	}
	views := make([]VehicleView, 0, len(vehicles))
	for i := range vehicles {
		views = append(views, newVehicleView(&vehicles[i]))
	}
	return views, nil
}

// Get hides other customers' vehicles behind NotFound.
func (s *VehicleService) Get(ctx context.Context, actor *models.User, id uint) (*VehicleView, error) {
	v, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if isCustomer(actor) && v.OwnerID != actor.ID {
		return nil, apperr.NotFound("vehicle", id)
	}
	view := newVehicleView(v)
	return &view, nil
}

func (s *VehicleService) Create(ctx context.Context, actor *models.User, in VehicleInput) (*VehicleView, error) {
	if isCustomer(actor) {
		if in.OwnerID != 0 && in.OwnerID != actor.ID {
			return nil, apperr.Forbidden("customers can only register their own vehicles")
		}
		in.OwnerID = actor.ID
	}
	v := models.Vehicle{
		OwnerID:      in.OwnerID,
		LicensePlate: NormalizePlate(in.LicensePlate),
		VIN:          strings.ToUpper(strings.TrimSpace(in.VIN)),
		Make:         strings.TrimSpace(in.Make),
		Model:        strings.TrimSpace(in.Model),
		Year:         in.Year,
		FuelTypeID:   in.FuelTypeID,
		Odometer:     in.Odometer,
	}
	if err := validateVehicle(&v); err != nil {
		return nil, err
	}

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if err := requireOwner(tx, v.OwnerID); err != nil {
			return err
		}
		if err := requireFuelType(tx, v.FuelTypeID); err != nil {
			return err
		}
		if err := tx.Create(&v).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperr.Conflict("vehicle", "license plate %s or VIN %s is already registered", v.LicensePlate, v.VIN)
			}
			return apperr.Wrap(err, "vehicle", "create")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "vehicle",
			EntityID:    v.ID,
			Action:      models.AuditActionCreate,
			Description: "vehicle " + v.LicensePlate + " registered",
			After:       map[string]any{"owner_id": v.OwnerID, "license_plate": v.LicensePlate},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, v.ID)
}

func (s *VehicleService) Update(ctx context.Context, actor *models.User, id uint, in VehicleUpdate) (*VehicleView, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var v models.Vehicle
		if err := database.ForUpdate(tx).First(&v, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("vehicle", id)
			}
			return apperr.Wrap(err, "vehicle", "get")
		}
		before := map[string]any{"owner_id": v.OwnerID, "odometer": v.Odometer, "fuel_type_id": v.FuelTypeID}

		if in.OwnerID != nil && *in.OwnerID != v.OwnerID {
			if err := requireOwner(tx, *in.OwnerID); err != nil {
				return err
			}
			v.OwnerID = *in.OwnerID
		}
		if in.FuelTypeID != nil {
			if err := requireFuelType(tx, in.FuelTypeID); err != nil {
				return err
			}
			v.FuelTypeID = in.FuelTypeID
		}
		if in.Odometer != nil {
			if *in.Odometer < v.Odometer {
				return apperr.Validation("odometer cannot go back from %d to %d", v.Odometer, *in.Odometer)
			}
			v.Odometer = *in.Odometer
		}
		if in.Make != nil {
			v.Make = strings.TrimSpace(*in.Make)
		}
		if in.Model != nil {
			v.Model = strings.TrimSpace(*in.Model)
		}
		if err := validateVehicle(&v); err != nil {
			return err
		}

		err := tx.Model(&v).Select("owner_id", "fuel_type_id", "odometer", "make", "model").Updates(&v).Error
		if err != nil {
			return apperr.Wrap(err, "vehicle", "update")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "vehicle",
			EntityID:    v.ID,
			Action:      models.AuditActionUpdate,
			Description: "vehicle " + v.LicensePlate + " updated",
			Before:      before,
			After:       map[string]any{"owner_id": v.OwnerID, "odometer": v.Odometer, "fuel_type_id": v.FuelTypeID},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// Delete refuses while any offer or order points at the vehicle.
func (s *VehicleService) Delete(ctx context.Context, actor *models.User, id uint) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		var v models.Vehicle
		if err := database.ForUpdate(tx).First(&v, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("vehicle", id)
			}
			return apperr.Wrap(err, "vehicle", "get")
		}

		var orders, offers int64
		if err := tx.Model(&models.Order{}).Where("vehicle_id = ?", id).Count(&orders).Error; err != nil {
			return apperr.Wrap(err, "vehicle", "delete")
		}
		if err := tx.Model(&models.Offer{}).Where("vehicle_id = ?", id).Count(&offers).Error; err != nil {
			return apperr.Wrap(err, "vehicle", "delete")
		}
		if orders > 0 || offers > 0 {
			return apperr.Conflict("vehicle", "%s is referenced by %d order(s) and %d offer(s)", v.LicensePlate, orders, offers)
		}

		if err := tx.Delete(&v).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperr.Conflict("vehicle", "%s is still referenced", v.LicensePlate)
			}
			return apperr.Wrap(err, "vehicle", "delete")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "vehicle",
			EntityID:    v.ID,
			Action:      models.AuditActionDelete,
			Description: "vehicle " + v.LicensePlate + " deleted",
			Before:      map[string]any{"owner_id": v.OwnerID, "license_plate": v.LicensePlate},
		})
	})
}

func (s *VehicleService) load(db *gorm.DB, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := db.Preload("Owner").Preload("FuelType").First(&v, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("vehicle", id)
		}
		return nil, apperr.Wrap(err, "vehicle", "get")
	}
	return &v, nil
}

func validateVehicle(v *models.Vehicle) error {
	switch {
	case v.OwnerID == 0:
		return apperr.Validation("owner_id is required")
	case v.LicensePlate == "" || len(v.LicensePlate) > 20:
		return apperr.Validation("license_plate must be 1-20 characters")
	case !vinPattern.MatchString(v.VIN):
		return apperr.Validation("vin %q is not valid", v.VIN)
	case v.Make == "" || v.Model == "":
		return apperr.Validation("make and model are required")
	case v.Odometer < 0:
		return apperr.Validation("odometer cannot be negative")
	case v.Year != 0 && (v.Year < 1900 || v.Year > time.Now().Year()+1):
		return apperr.Validation("year %d is out of range", v.Year)
	}
	return nil
}

func requireOwner(tx *gorm.DB, id uint) error {
	var u models.User
	if err := tx.Select("id").First(&u, id).Error; err != nil {
		if database.IsNotFound(err) {
			return apperr.Validation("owner %d does not exist", id)
		}
		return apperr.Wrap(err, "user", "get")
	}
	return nil
}

func requireFuelType(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(&models.FuelType{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return apperr.Wrap(err, "fuel type", "get")
	}
	if n == 0 {
		return apperr.Validation("fuel type %d does not exist", *id)
	}
	return nil
}
