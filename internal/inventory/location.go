package inventory

import (
	"context"
	"fmt"
	"strings"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/audit"
	"inventory-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BulkResult reports how many rows a bulk operation selected and how many it
// changed. The two differ only when something went wrong mid-statement.
type BulkResult struct {
	Matched  int64 `json:"matched"`
	Affected int64 `json:"affected"`
}

type locationImage struct {
	Location string `json:"location"`
	Items    int64  `json:"items"`
}

// RenameLocation moves every item of the store at from to to, atomically.
func (r *Repository) RenameLocation(ctx context.Context, storeID uint, from, to string) (BulkResult, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return BulkResult{}, apperr.Validation("new location name is required")
	}

	var res BulkResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matched, err := countAt(tx, storeID, from)
		if err != nil {
			return err
		}
		res.Matched = matched
		if from == to {
			return nil
		}

		upd := tx.Model(&models.Item{}).
			Where("store_id = ? AND location = ?", storeID, from).
			Updates(map[string]any{"location": to})
		if upd.Error != nil {
			return apperr.Persistence("rename location", upd.Error)
		}
		res.Affected = upd.RowsAffected
		if res.Affected != res.Matched {
			return apperr.Persistence("rename location",
				fmt.Errorf("updated %d of %d items", res.Affected, res.Matched))
		}

		return apperr.Persistence("write audit log", audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &storeID,
			EntityType:  models.EntityLocation,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Renamed location %s to %s (%d items)", from, to, res.Affected),
			Before:      locationImage{Location: from, Items: res.Matched},
			After:       locationImage{Location: to, Items: res.Affected},
		}))
	})
	if err != nil {
		r.l.WithError(err).WithFields(logrus.Fields{"store_id": storeID, "matched": res.Matched, "affected": res.Affected}).
			Warnf("Location rename [%s] -> [%s] rolled back.", from, to)
		return res, err
	}

	r.m.ObserveBulk("location_rename", res.Affected)
	return res, nil
}

// DeleteLocation removes every item of the store at location, active or not.
func (r *Repository) DeleteLocation(ctx context.Context, storeID uint, location string) (BulkResult, error) {
	var res BulkResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matched, err := countAt(tx, storeID, location)
		if err != nil {
			return err
		}
		res.Matched = matched

		del := tx.Where("store_id = ? AND location = ?", storeID, location).Delete(&models.Item{})
		if del.Error != nil {
			return apperr.Persistence("delete location", del.Error)
		}
		res.Affected = del.RowsAffected
		if res.Affected != res.Matched {
			return apperr.Persistence("delete location",
				fmt.Errorf("deleted %d of %d items", res.Affected, res.Matched))
		}

		return apperr.Persistence("write audit log", audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &storeID,
			EntityType:  models.EntityLocation,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Deleted location %s (%d items)", location, res.Affected),
			Before:      locationImage{Location: location, Items: res.Matched},
		}))
	})
	if err != nil {
		r.l.WithError(err).WithFields(logrus.Fields{"store_id": storeID, "matched": res.Matched, "affected": res.Affected}).
			Warnf("Location delete [%s] rolled back.", location)
		return res, err
	}

	r.m.ObserveBulk("location_delete", res.Affected)
	return res, nil
}

// countAt fails with NotFoundError when no item of the store carries location,
// since such a location does not exist.
func countAt(tx *gorm.DB, storeID uint, location string) (int64, error) {
	var n int64
	err := tx.Model(&models.Item{}).
		Where("store_id = ? AND location = ?", storeID, location).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Persistence("count location items", err)
	}
	if n == 0 {
		return 0, apperr.NotFound("location", location)
	}
	return n, nil
}
