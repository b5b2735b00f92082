package audit

import (
	"encoding/json"
	"fmt"

	"workshop-backend/internal/models"

	"gorm.io/gorm"
)

type Entry struct {
	Actor       *models.User
	EntityType  string
	EntityID    any
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Write stores the entry through tx so it commits or rolls back together with
// the change it describes.
func Write(tx *gorm.DB, e Entry) error {
	log := models.AuditLog{
		EntityType:  e.EntityType,
		EntityID:    fmt.Sprint(e.EntityID),
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  encode(e.Before),
		AfterData:   encode(e.After),
	}
	if e.Actor != nil {
		id := e.Actor.ID
		log.UserID = &id
		log.UserName = e.Actor.Name
	}

	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// jsonb columns do not accept an empty string, so absent data is stored as null
func encode(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
