package audit

import (
	"strconv"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	StoreID     *uint              `json:"store_id"`
	RequestID   string             `json:"request_id"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
	IsUndone    bool               `json:"is_undone"`
	UndoneAt    *string            `json:"undone_at"`
}

const timeLayout = "2006-01-02 15:04:05"

func toResponse(log models.AuditLog) AuditLogResponse {
	var undoneAt *string
	if log.UndoneAt != nil {
		s := log.UndoneAt.Format(timeLayout)
		undoneAt = &s
	}
	return AuditLogResponse{
		ID:          log.ID,
		CreatedAt:   log.CreatedAt.Format(timeLayout),
		StoreID:     log.StoreID,
		RequestID:   log.RequestID,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      log.Action,
		Description: log.Description,
		BeforeData:  log.BeforeData,
		AfterData:   log.AfterData,
		IsUndone:    log.IsUndone,
		UndoneAt:    undoneAt,
	}
}

// GET /api/audit-logs?store_id=1&entity_type=item&entity_id=3&limit=100
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.AuditLog{})

		if v := c.Query("store_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return apperr.Validation("store_id must be a positive integer")
			}
			dbq = dbq.Where("store_id = ?", uint(id))
		}
		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v := c.Query("entity_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return apperr.Validation("entity_id must be a positive integer")
			}
			dbq = dbq.Where("entity_id = ?", uint(id))
		}

		limit := c.QueryInt("limit", 200)
		if limit <= 0 || limit > 1000 {
			limit = 200
		}

		var logs []models.AuditLog
		if err := dbq.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return apperr.Persistence("list audit logs", err)
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, toResponse(log))
		}
		return c.JSON(resp)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperr.Validation("invalid audit log id")
		}

		undo, err := Undo(c.UserContext(), db, uint(id))
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*undo))
	}
}
