package orders

import (
	"context"
	"strings"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/database"
	"workshop-backend/internal/lifecycle"
	"workshop-backend/internal/models"

	"gorm.io/gorm"
)

type OfferInput struct {
	VehicleID        uint
	CustomerID       *uint
	IssueDescription string
	RequestedAt      *time.Time
	Images           []string
}

// OfferUpdate changes the fields that are not governed by a transition.
type OfferUpdate struct {
	IssueDescription *string
	AdminComment     *string
	AppointmentAt    *time.Time
	AgentID          *uint
	AddImages        []string
}

type OfferFilter struct {
	Status     models.OfferStatus
	CustomerID *uint
	VehicleID  *uint
	AgentID    *uint
}

type OfferService struct {
	db *gorm.DB
}

func NewOfferService(db *gorm.DB) *OfferService {
	return &OfferService{db: db}
}

func (s *OfferService) List(ctx context.Context, actor *models.User, f OfferFilter) ([]OfferView, error) {
	q := ownedBy(s.db.WithContext(ctx), actor, "customer_id").
		Preload("Customer").Preload("Vehicle").Preload("Agent").Preload("Images")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	if f.AgentID != nil {
		q = q.Where("agent_id = ?", *f.AgentID)
	}

	var offers []models.Offer
	if err := q.Order("requested_at desc, id desc").Find(&offers).Error; err != nil {
		return nil, apperr.Wrap(err, "offer", "list")
	}

	ids := make([]uint, 0, len(offers))
	for _, o := range offers {
		ids = append(ids, o.ID)
	}
	orderIDs, err := ordersByOffer(s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	out := make([]OfferView, 0, len(offers))
	for i := range offers {
		out = append(out, newOfferView(&offers[i], orderIDs[offers[i].ID]))
	}
	return out, nil
}

func (s *OfferService) Get(ctx context.Context, actor *models.User, id uint) (*OfferView, error) {
	return s.view(s.db.WithContext(ctx), actor, id)
}

// Create registers a service request. Customers may only file offers for
// their own vehicles; staff file them on behalf of the vehicle owner.
func (s *OfferService) Create(ctx context.Context, actor *models.User, in OfferInput) (*OfferView, error) {
	desc := strings.TrimSpace(in.IssueDescription)
	if desc == "" {
		return nil, apperr.Validation("issue_description is required")
	}

	offer := models.Offer{
		VehicleID:        in.VehicleID,
		IssueDescription: desc,
		Status:           models.OfferReceived,
		RequestedAt:      time.Now(),
	}
	if in.RequestedAt != nil {
		offer.RequestedAt = *in.RequestedAt
	}
	for _, url := range in.Images {
		if url = strings.TrimSpace(url); url != "" {
			offer.Images = append(offer.Images, models.OfferImage{URL: url})
		}
	}

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		vehicle, err := loadVehicle(tx, in.VehicleID)
		if err != nil {
			return err
		}
		offer.CustomerID = vehicle.OwnerID

		if actor.Role == models.RoleCustomer {
			if vehicle.OwnerID != actor.ID {
				return apperr.Forbidden("customers can only request service for their own vehicles")
			}
		} else if in.CustomerID != nil && *in.CustomerID != vehicle.OwnerID {
			return apperr.Validation("vehicle %d does not belong to customer %d", vehicle.ID, *in.CustomerID)
		}

		if err := tx.Create(&offer).Error; err != nil {
			return apperr.Wrap(err, "offer", "create")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "offer",
			EntityID:    offer.ID,
			Action:      models.AuditActionCreate,
			Description: "offer received",
			After:       map[string]any{"vehicle_id": offer.VehicleID, "customer_id": offer.CustomerID},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, offer.ID)
}

// Update edits an open offer. Rejected and cancelled offers are frozen.
func (s *OfferService) Update(ctx context.Context, actor *models.User, id uint, in OfferUpdate) (*OfferView, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, id)
		if err != nil {
			return err
		}
		if lifecycle.OfferTerminal(offer.Status) {
			return apperr.Validation("offer %d is %s and can no longer change", id, offer.Status)
		}

		if in.IssueDescription != nil {
			desc := strings.TrimSpace(*in.IssueDescription)
			if desc == "" {
				return apperr.Validation("issue_description cannot be empty")
			}
			offer.IssueDescription = desc
		}
		if in.AdminComment != nil {
			offer.AdminComment = strings.TrimSpace(*in.AdminComment)
		}
		if in.AppointmentAt != nil {
			offer.AppointmentAt = in.AppointmentAt
		}
		if in.AgentID != nil {
			if err := requireStaff(tx, *in.AgentID, "agent"); err != nil {
				return err
			}
			offer.AgentID = in.AgentID
		}

		err = tx.Model(offer).
			Select("issue_description", "admin_comment", "appointment_at", "agent_id").
			Updates(offer).Error
		if err != nil {
			return apperr.Wrap(err, "offer", "update")
		}

		for _, url := range in.AddImages {
			if url = strings.TrimSpace(url); url == "" {
				continue
			}
			if err := tx.Create(&models.OfferImage{OfferID: id, URL: url}).Error; err != nil {
				return apperr.Wrap(err, "offer image", "create")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// SetStatus drives the offer state machine.
func (s *OfferService) SetStatus(ctx context.Context, actor *models.User, id uint, change lifecycle.OfferChange) (*OfferView, error) {
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, id)
		if err != nil {
			return err
		}
		if change.AgentID != nil {
			if err := requireStaff(tx, *change.AgentID, "agent"); err != nil {
				return err
			}
		}

		prev := offer.Status
		edge, err := lifecycle.ApplyOffer(offer, change, actor.ID)
		if err != nil {
			return err
		}

		err = tx.Model(offer).Select("status", "agent_id", "appointment_at").Updates(offer).Error
		if err != nil {
			return apperr.Wrap(err, "offer", "set status")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "offer",
			EntityID:    offer.ID,
			Action:      models.AuditActionTransition,
			Description: "offer " + edge.Name,
			Before:      map[string]any{"status": prev},
			After: map[string]any{
				"status":         offer.Status,
				"agent_id":       offer.AgentID,
				"appointment_at": offer.AppointmentAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// Delete refuses offers that already have an order.
func (s *OfferService) Delete(ctx context.Context, actor *models.User, id uint) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, id)
		if err != nil {
			return err
		}

		var orders int64
		if err := tx.Model(&models.Order{}).Where("offer_id = ?", id).Count(&orders).Error; err != nil {
			return apperr.Wrap(err, "offer", "delete")
		}
		if orders > 0 {
			return apperr.Conflict("offer", "offer %d already has an order", id)
		}

		if err := tx.Where("offer_id = ?", id).Delete(&models.OfferImage{}).Error; err != nil {
			return apperr.Wrap(err, "offer image", "delete")
		}
		if err := tx.Delete(&models.Offer{}, id).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperr.Conflict("offer", "offer %d is still referenced", id)
			}
			return apperr.Wrap(err, "offer", "delete")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "offer",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: "offer deleted",
			Before:      map[string]any{"status": offer.Status, "vehicle_id": offer.VehicleID},
		})
	})
}

func (s *OfferService) view(db *gorm.DB, actor *models.User, id uint) (*OfferView, error) {
	var offer models.Offer
	err := db.Preload("Customer").Preload("Vehicle").Preload("Agent").Preload("Images").First(&offer, id).Error
	if database.IsNotFound(err) || (err == nil && !canSee(actor, offer.CustomerID)) {
		return nil, apperr.NotFound("offer", id)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "offer", "get")
	}

	orderIDs, err := ordersByOffer(db, []uint{id})
	if err != nil {
		return nil, err
	}
	v := newOfferView(&offer, orderIDs[id])
	return &v, nil
}

func lockOffer(tx *gorm.DB, id uint) (*models.Offer, error) {
	var offer models.Offer
	if err := database.ForUpdate(tx).First(&offer, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("offer", id)
		}
		return nil, apperr.Wrap(err, "offer", "lock")
	}
	return &offer, nil
}

func ordersByOffer(db *gorm.DB, offerIDs []uint) (map[uint]*uint, error) {
	out := make(map[uint]*uint, len(offerIDs))
	if len(offerIDs) == 0 {
		return out, nil
	}
	var rows []models.Order
	if err := db.Select("id", "offer_id").Where("offer_id IN ?", offerIDs).Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, "order", "list")
	}
	for _, r := range rows {
		if r.OfferID != nil {
			id := r.ID
			out[*r.OfferID] = &id
		}
	}
	return out, nil
}
