package audit

import (
	"encoding/json"
	"fmt"

	"aligner-lab-backend/internal/database"
	"aligner-lab-backend/internal/models"
)

type LogOptions struct {
	CaseID      *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// jsonb não aceita string vazia, usamos "null"
func toJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func BuildLog(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		CaseID:      opts.CaseID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
}

func WriteLog(opts LogOptions) error {
	if database.DB == nil {
		return nil
	}
	log := BuildLog(opts)
	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("não foi possível gravar o log de auditoria: %w", err)
	}
	return nil
}
