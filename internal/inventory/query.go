package inventory

import (
	"cmp"
	"context"
	"slices"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

// Query builds the read views. It never writes.
type Query struct {
	db *gorm.DB
}

func NewQuery(db *gorm.DB) *Query {
	return &Query{db: db}
}

// ShoppingRow is an item that needs restocking together with how many to buy.
type ShoppingRow struct {
	models.Item
	Needed int
}

// ListInventory returns the active items of a store, optionally limited to
// one location.
func (q *Query) ListInventory(ctx context.Context, storeID uint, location *string) ([]models.Item, error) {
	var items []models.Item
	if err := q.active(ctx, storeID, location).Find(&items).Error; err != nil {
		return nil, apperr.Persistence("list inventory", err)
	}
	sortItems(items)
	return items, nil
}

func (q *Query) ListInactive(ctx context.Context, storeID uint) ([]models.Item, error) {
	var items []models.Item
	err := q.db.WithContext(ctx).
		Where("store_id = ? AND active = ?", storeID, false).
		Find(&items).Error
	if err != nil {
		return nil, apperr.Persistence("list inactive items", err)
	}
	sortItems(items)
	return items, nil
}

// restockCondition is NeedsRestock as a WHERE clause.
const restockCondition = "current_count < target_amount + extra"

// ShoppingList returns the active items with current < target + extra.
func (q *Query) ShoppingList(ctx context.Context, storeID uint, location *string) ([]ShoppingRow, error) {
	var items []models.Item
	err := q.active(ctx, storeID, location).
		Where(restockCondition).
		Find(&items).Error
	if err != nil {
		return nil, apperr.Persistence("list shopping items", err)
	}
	sortItems(items)

	rows := make([]ShoppingRow, 0, len(items))
	for _, it := range items {
		if !NeedsRestock(it.CurrentCount, it.TargetAmount, it.Extra) {
			continue
		}
		rows = append(rows, ShoppingRow{Item: it, Needed: Needed(it.CurrentCount, it.TargetAmount, it.Extra)})
	}
	return rows, nil
}

// ListLocations returns every location used in the store, including ones whose
// items are all inactive.
func (q *Query) ListLocations(ctx context.Context, storeID uint) ([]string, error) {
	var locs []string
	err := q.db.WithContext(ctx).Model(&models.Item{}).
		Where("store_id = ?", storeID).
		Distinct("location").
		Pluck("location", &locs).Error
	if err != nil {
		return nil, apperr.Persistence("list locations", err)
	}
	slices.Sort(locs)
	return locs, nil
}

func (q *Query) active(ctx context.Context, storeID uint, location *string) *gorm.DB {
	tx := q.db.WithContext(ctx).Where("store_id = ? AND active = ?", storeID, true)
	if location != nil {
		tx = tx.Where("location = ?", *location)
	}
	return tx
}

// sortItems orders by location, brand and item using byte-wise comparison so
// SQLite and Postgres collations give the same result.
func sortItems(items []models.Item) {
	slices.SortFunc(items, func(a, b models.Item) int {
		return cmp.Or(
			cmp.Compare(a.Location, b.Location),
			cmp.Compare(a.Brand, b.Brand),
			cmp.Compare(a.Item, b.Item),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
