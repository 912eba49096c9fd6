package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	StoreID     *uint
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type requestIDKey struct{}

// WithRequestID tags ctx so audit entries written under it carry the id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WriteLog stores one audit entry through tx, so it commits or rolls back
// together with the change it describes.
func WriteLog(tx *gorm.DB, opts LogOptions) error {
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		b, err := json.Marshal(opts.Before)
		if err != nil {
			return fmt.Errorf("encode audit before image: %w", err)
		}
		beforeStr = string(b)
	}
	if opts.After != nil {
		b, err := json.Marshal(opts.After)
		if err != nil {
			return fmt.Errorf("encode audit after image: %w", err)
		}
		afterStr = string(b)
	}

	log := models.AuditLog{
		StoreID:     opts.StoreID,
		RequestID:   RequestIDFrom(tx.Statement.Context),
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Undo reverts the item change recorded by entry logID. Store and location
// entries are informational only.
func Undo(ctx context.Context, db *gorm.DB, logID uint) (*models.AuditLog, error) {
	var undo models.AuditLog
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, "id = ?", logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("audit log", logID)
			}
			return apperr.Persistence("load audit log", err)
		}
		if log.IsUndone {
			return apperr.Validation("audit log %d is already undone", logID)
		}
		if log.EntityType != models.EntityItem {
			return apperr.Validation("%s changes cannot be undone", log.EntityType)
		}

		entityID := log.EntityID
		switch log.Action {
		case models.AuditActionCreate:
			if err := deleteItem(tx, log.EntityID); err != nil {
				return err
			}
		case models.AuditActionUpdate:
			if err := restoreItem(tx, log.EntityID, log.BeforeData); err != nil {
				return err
			}
		case models.AuditActionDelete:
			id, err := recreateItem(tx, log.BeforeData)
			if err != nil {
				return err
			}
			entityID = id
		default:
			return apperr.Validation("%s entries cannot be undone", log.Action)
		}

		now := time.Now()
		res := tx.Model(&models.AuditLog{}).
			Where("id = ? AND is_undone = ?", log.ID, false).
			Updates(map[string]any{"is_undone": true, "undone_at": now})
		if res.Error != nil {
			return apperr.Persistence("mark audit log undone", res.Error)
		}
		if res.RowsAffected != 1 {
			return apperr.Validation("audit log %d is already undone", logID)
		}

		undo = models.AuditLog{
			StoreID:     log.StoreID,
			RequestID:   RequestIDFrom(ctx),
			EntityType:  log.EntityType,
			EntityID:    entityID,
			Action:      models.AuditActionUndo,
			Description: "Undo: " + log.Description,
			BeforeData:  log.AfterData,
			AfterData:   log.BeforeData,
		}
		return apperr.Persistence("write undo log", tx.Create(&undo).Error)
	})
	if err != nil {
		return nil, err
	}
	return &undo, nil
}

func deleteItem(tx *gorm.DB, id uint) error {
	res := tx.Delete(&models.Item{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Persistence("delete item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("item", id)
	}
	return nil
}

func restoreItem(tx *gorm.DB, id uint, dataJSON string) error {
	var it models.Item
	if err := json.Unmarshal([]byte(dataJSON), &it); err != nil {
		return apperr.Persistence("decode audit image", err)
	}
	res := tx.Model(&models.Item{}).Where("id = ?", id).Updates(map[string]any{
		"store_id":      it.StoreID,
		"brand":         it.Brand,
		"item":          it.Item,
		"location":      it.Location,
		"current_count": it.CurrentCount,
		"target_amount": it.TargetAmount,
		"extra":         it.Extra,
		"active":        it.Active,
	})
	if res.Error != nil {
		return apperr.Persistence("restore item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("item", id)
	}
	return nil
}

func recreateItem(tx *gorm.DB, dataJSON string) (uint, error) {
	var it models.Item
	if err := json.Unmarshal([]byte(dataJSON), &it); err != nil {
		return 0, apperr.Persistence("decode audit image", err)
	}
	var n int64
	if err := tx.Model(&models.Store{}).Where("id = ?", it.StoreID).Count(&n).Error; err != nil {
		return 0, apperr.Persistence("load store", err)
	}
	if n == 0 {
		return 0, apperr.NotFound("store", it.StoreID)
	}
	it.ID = 0
	if err := models.InsertItem(tx, &it); err != nil {
		return 0, apperr.Persistence("recreate item", err)
	}
	return it.ID, nil
}
