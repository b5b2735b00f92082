package audit

import (
	"workshop-backend/internal/apperr"
	"workshop-backend/internal/binding"
	"workshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type LogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      *uint              `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/audit-logs?entity_type=order&entity_id=10&user_id=1&action=transition&limit=50
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.WithContext(c.UserContext()).Model(&models.AuditLog{})

		if v := c.Query("entity_type"); v != "" {
			q = q.Where("entity_type = ?", v)
		}
		if v := c.Query("entity_id"); v != "" {
			q = q.Where("entity_id = ?", v)
		}
		if v := c.Query("action"); v != "" {
			q = q.Where("action = ?", v)
		}
		userID, err := binding.QueryID(c, "user_id")
		if err != nil {
			return err
		}
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}

		limit := c.QueryInt("limit", defaultLimit)
		if limit <= 0 || limit > maxLimit {
			limit = defaultLimit
		}

		var logs []models.AuditLog
		if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return apperr.Wrap(err, "audit log", "list")
		}

		resp := make([]LogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, LogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
