package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/audit"
	"inventory-backend/internal/metrics"
	"inventory-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultStoreID is used when a request does not name a store.
const DefaultStoreID uint = 1

type Repository struct {
	db *gorm.DB
	l  logrus.FieldLogger
	m  *metrics.Metrics
}

func NewRepository(db *gorm.DB, l logrus.FieldLogger, m *metrics.Metrics) *Repository {
	return &Repository{db: db, l: l, m: m}
}

// ItemInput carries the user editable fields of an item.
type ItemInput struct {
	Brand        string
	Item         string
	Location     string
	CurrentCount int
	TargetAmount int
	Extra        int
}

// Normalize trims the text fields and checks the invariants every stored
// item satisfies.
func (in *ItemInput) Normalize() error {
	in.Brand = strings.TrimSpace(in.Brand)
	in.Item = strings.TrimSpace(in.Item)
	in.Location = strings.TrimSpace(in.Location)

	switch {
	case in.Brand == "":
		return apperr.Validation("brand is required")
	case in.Item == "":
		return apperr.Validation("item is required")
	case in.Location == "":
		return apperr.Validation("location is required")
	case in.CurrentCount < 0:
		return apperr.Validation("currentCount must not be negative")
	case in.TargetAmount < 0:
		return apperr.Validation("targetAmount must not be negative")
	case in.Extra < 0:
		return apperr.Validation("extra must not be negative")
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	return getItem(r.db.WithContext(ctx), id)
}

func (r *Repository) CreateItem(ctx context.Context, storeID uint, in ItemInput) (*models.Item, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

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
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := storeExists(tx, storeID); err != nil {
			return err
		}
		if err := models.InsertItem(tx, &it); err != nil {
			return apperr.Persistence("create item", err)
		}
		return writeItemLog(tx, models.AuditActionCreate,
			fmt.Sprintf("Added %s %s at %s", it.Brand, it.Item, it.Location), nil, &it)
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateItem replaces every editable field of the item. The owning store
// does not change.
func (r *Repository) UpdateItem(ctx context.Context, id uint, in ItemInput) (*models.Item, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return r.mutate(ctx, id, "update item", func(it *models.Item) (map[string]any, string) {
		return map[string]any{
			"brand":         in.Brand,
			"item":          in.Item,
			"location":      in.Location,
			"current_count": in.CurrentCount,
			"target_amount": in.TargetAmount,
			"extra":         in.Extra,
		}, fmt.Sprintf("Updated %s %s", in.Brand, in.Item)
	})
}

func (r *Repository) PatchQuantities(ctx context.Context, id uint, current, target int) (*models.Item, error) {
	if current < 0 || target < 0 {
		return nil, apperr.Validation("counts must not be negative")
	}
	return r.mutate(ctx, id, "update quantities", func(it *models.Item) (map[string]any, string) {
		return map[string]any{
				"current_count": current,
				"target_amount": target,
			}, fmt.Sprintf("Counted %s %s: %d/%d -> %d/%d",
				it.Brand, it.Item, it.CurrentCount, it.TargetAmount, current, target)
	})
}

func (r *Repository) PatchExtra(ctx context.Context, id uint, extra int) (*models.Item, error) {
	if extra < 0 {
		return nil, apperr.Validation("extra must not be negative")
	}
	return r.mutate(ctx, id, "update extra", func(it *models.Item) (map[string]any, string) {
		return map[string]any{"extra": extra},
			fmt.Sprintf("Set extra for %s %s to %d", it.Brand, it.Item, extra)
	})
}

// RecordPurchase adds amount bought units to the stock on hand. The increment
// happens in SQL so concurrent purchases are not lost.
func (r *Repository) RecordPurchase(ctx context.Context, id uint, amount int) (*models.Item, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be greater than 0")
	}
	return r.mutate(ctx, id, "record purchase", func(it *models.Item) (map[string]any, string) {
		return map[string]any{"current_count": gorm.Expr("current_count + ?", amount)},
			fmt.Sprintf("Bought %d of %s %s", amount, it.Brand, it.Item)
	})
}

// SetActive hides (false) or restores (true) an item without deleting it.
func (r *Repository) SetActive(ctx context.Context, id uint, active bool) (*models.Item, error) {
	return r.mutate(ctx, id, "update active flag", func(it *models.Item) (map[string]any, string) {
		verb := "Deactivated"
		if active {
			verb = "Reactivated"
		}
		return map[string]any{"active": active}, fmt.Sprintf("%s %s %s", verb, it.Brand, it.Item)
	})
}

func (r *Repository) DeleteItem(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := getItem(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(it).Error; err != nil {
			return apperr.Persistence("delete item", err)
		}
		return writeItemLog(tx, models.AuditActionDelete,
			fmt.Sprintf("Deleted %s %s at %s", it.Brand, it.Item, it.Location), it, nil)
	})
}

// mutate loads the item, applies the column changes from fn and records the
// before and after images in one transaction.
func (r *Repository) mutate(ctx context.Context, id uint, op string, fn func(it *models.Item) (map[string]any, string)) (*models.Item, error) {
	var after models.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := getItem(tx, id)
		if err != nil {
			return err
		}

		changes, desc := fn(before)
		if err := tx.Model(&models.Item{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return apperr.Persistence(op, err)
		}
		if err := tx.First(&after, "id = ?", id).Error; err != nil {
			return apperr.Persistence(op, err)
		}
		return writeItemLog(tx, models.AuditActionUpdate, desc, before, &after)
	})
	if err != nil {
		return nil, err
	}
	return &after, nil
}

func getItem(db *gorm.DB, id uint) (*models.Item, error) {
	var it models.Item
	if err := db.First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("item", id)
		}
		return nil, apperr.Persistence("load item", err)
	}
	return &it, nil
}

func storeExists(tx *gorm.DB, storeID uint) error {
	var n int64
	if err := tx.Model(&models.Store{}).Where("id = ?", storeID).Count(&n).Error; err != nil {
		return apperr.Persistence("load store", err)
	}
	if n == 0 {
		return apperr.NotFound("store", storeID)
	}
	return nil
}

func writeItemLog(tx *gorm.DB, action models.AuditAction, desc string, before, after *models.Item) error {
	opts := audit.LogOptions{
		EntityType:  models.EntityItem,
		Action:      action,
		Description: desc,
	}
	// nil pointers must stay untyped nil so the image is written as "null"
	if before != nil {
		opts.Before = before
		opts.StoreID = &before.StoreID
		opts.EntityID = before.ID
	}
	if after != nil {
		opts.After = after
		opts.StoreID = &after.StoreID
		opts.EntityID = after.ID
	}
	return apperr.Persistence("write audit log", audit.WriteLog(tx, opts))
}
