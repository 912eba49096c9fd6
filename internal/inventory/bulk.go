package inventory

import (
	"context"
	"fmt"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

// ImportItems inserts all inputs into the store in one transaction. Inputs
// must already be normalized; nothing is written if any insert fails.
func (r *Repository) ImportItems(ctx context.Context, storeID uint, inputs []ItemInput) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := storeExists(tx, storeID); err != nil {
			return err
		}
		for _, in := range inputs {
			it := models.Item{
				StoreID:      storeID,
				Brand:        in.Brand,
				Item:         in.Item,
				Location:     in.Location,
				CurrentCount: in.CurrentCount,
				TargetAmount: in.TargetAmount,
				Extra:        in.Extra,
				Active:       true,
			}
			if err := models.InsertItem(tx, &it); err != nil {
				return apperr.Persistence("import items", err)
			}
			if err := writeItemLog(tx, models.AuditActionCreate,
				fmt.Sprintf("Imported %s %s at %s", it.Brand, it.Item, it.Location), nil, &it); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.m.ObserveBulk("import", n)
	r.l.WithField("store_id", storeID).Infof("Imported %d items.", n)
	return n, nil
}
