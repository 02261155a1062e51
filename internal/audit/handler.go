package audit

import (
	"fmt"

	"aligner-lab-backend/internal/database"
	"aligner-lab-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	CaseID      *uint              `json:"case_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

// GET /api/audit-logs?case_id=1&entity_type=work_item&entity_id=3&user_id=2
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if v := c.Query("case_id"); v != "" {
			var id uint
			if _, err := fmt.Sscan(v, &id); err == nil && id > 0 {
				dbq = dbq.Where("case_id = ?", id)
			}
		}
		if v := c.Query("user_id"); v != "" {
			var id uint
			if _, err := fmt.Sscan(v, &id); err == nil && id > 0 {
				dbq = dbq.Where("user_id = ?", id)
			}
		}
		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v := c.Query("entity_id"); v != "" {
			var id uint
			if _, err := fmt.Sscan(v, &id); err == nil && id > 0 {
				dbq = dbq.Where("entity_id = ?", id)
			}
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(500).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar a auditoria")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				CaseID:      l.CaseID,
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
			})
		}
		return c.JSON(resp)
	}
}
