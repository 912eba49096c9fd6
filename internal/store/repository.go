package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/audit"
	"inventory-backend/internal/metrics"
	"inventory-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxNameLength = 100

type Repository struct {
	db *gorm.DB
	l  logrus.FieldLogger
	m  *metrics.Metrics
}

func NewRepository(db *gorm.DB, l logrus.FieldLogger, m *metrics.Metrics) *Repository {
	return &Repository{db: db, l: l, m: m}
}

// Stats is the per-store item breakdown printed by the CLI.
type Stats struct {
	StoreID  uint
	Name     string
	Active   int64
	Inactive int64
}

func (r *Repository) List(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("id").Find(&stores).Error; err != nil {
		return nil, apperr.Persistence("list stores", err)
	}
	return stores, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*models.Store, error) {
	return getStore(r.db.WithContext(ctx), id)
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Store{}).Count(&n).Error; err != nil {
		return 0, apperr.Persistence("count stores", err)
	}
	return n, nil
}

// Create adds a store. With copyFrom set, every item of the source store is
// copied with its counts reset, giving the new store the same shopping
// template without the stock.
func (r *Repository) Create(ctx context.Context, name string, copyFrom *uint) (*models.Store, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	var s models.Store
	var copied int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, name, 0); err != nil {
			return err
		}

		var source []models.Item
		if copyFrom != nil {
			if _, err := getStore(tx, *copyFrom); err != nil {
				return err
			}
			if err := tx.Where("store_id = ?", *copyFrom).Order("id").Find(&source).Error; err != nil {
				return apperr.Persistence("load source items", err)
			}
		}

		s = models.Store{Name: name}
		if err := tx.Create(&s).Error; err != nil {
			return translateCreate(err, name)
		}

		for _, src := range source {
			it := models.Item{
				StoreID:  s.ID,
				Brand:    src.Brand,
				Item:     src.Item,
				Location: src.Location,
				Active:   src.Active,
			}
			if err := models.InsertItem(tx, &it); err != nil {
				return apperr.Persistence("copy items", err)
			}
			copied++
		}

		desc := fmt.Sprintf("Created store %s", s.Name)
		if copyFrom != nil {
			desc = fmt.Sprintf("Created store %s with %d items copied from store %d", s.Name, copied, *copyFrom)
		}
		return apperr.Persistence("write audit log", audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &s.ID,
			EntityType:  models.EntityStore,
			EntityID:    s.ID,
			Action:      models.AuditActionCreate,
			Description: desc,
			After:       s,
		}))
	})
	if err != nil {
		return nil, err
	}

	r.m.ObserveBulk("store_copy", copied)
	r.l.WithFields(logrus.Fields{"store_id": s.ID, "copied": copied}).Infof("Store [%s] created.", s.Name)
	return &s, nil
}

func (r *Repository) Rename(ctx context.Context, id uint, name string) (*models.Store, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	var s *models.Store
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		s, err = getStore(tx, id)
		if err != nil {
			return err
		}
		if s.Name == name {
			return nil
		}
		if err := ensureNameFree(tx, name, id); err != nil {
			return err
		}

		before := *s
		if err := tx.Model(s).Update("name", name).Error; err != nil {
			return translateCreate(err, name)
		}
		s.Name = name
		return apperr.Persistence("write audit log", audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &s.ID,
			EntityType:  models.EntityStore,
			EntityID:    s.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Renamed store %s to %s", before.Name, name),
			Before:      before,
			After:       s,
		}))
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes the store and all of its items. The last remaining store
// can never be deleted.
func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Order("id")
		if tx.Dialector.Name() == "postgres" {
			// serialise concurrent deletes so two of them cannot both pass the check
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var stores []models.Store
		if err := q.Find(&stores).Error; err != nil {
			return apperr.Persistence("load stores", err)
		}

		var target *models.Store
		for i := range stores {
			if stores[i].ID == id {
				target = &stores[i]
				break
			}
		}
		if target == nil {
			return apperr.NotFound("store", id)
		}
		if len(stores) <= 1 {
			return &apperr.LastStoreError{}
		}

		res := tx.Where("store_id = ?", id).Delete(&models.Item{})
		if res.Error != nil {
			return apperr.Persistence("delete store items", res.Error)
		}
		removed = res.RowsAffected

		if err := tx.Delete(target).Error; err != nil {
			return apperr.Persistence("delete store", err)
		}
		return apperr.Persistence("write audit log", audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &target.ID,
			EntityType:  models.EntityStore,
			EntityID:    target.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Deleted store %s and %d items", target.Name, removed),
			Before:      target,
		}))
	})
	if err != nil {
		return 0, err
	}

	r.m.ObserveBulk("store_delete", removed)
	r.l.WithFields(logrus.Fields{"store_id": id, "items": removed}).Info("Store deleted.")
	return removed, nil
}

func (r *Repository) Stats(ctx context.Context) ([]Stats, error) {
	stores, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		StoreID uint
		Active  bool
		N       int64
	}
	err = r.db.WithContext(ctx).Model(&models.Item{}).
		Select("store_id, active, COUNT(*) AS n").
		Group("store_id, active").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Persistence("count items", err)
	}

	res := make([]Stats, 0, len(stores))
	idx := make(map[uint]int, len(stores))
	for _, s := range stores {
		idx[s.ID] = len(res)
		res = append(res, Stats{StoreID: s.ID, Name: s.Name})
	}
	for _, row := range rows {
		i, ok := idx[row.StoreID]
		if !ok {
			continue
		}
		if row.Active {
			res[i].Active += row.N
		} else {
			res[i].Inactive += row.N
		}
	}
	return res, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("store name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperr.Validation("store name must be at most %d characters", maxNameLength)
	}
	return name, nil
}

func getStore(db *gorm.DB, id uint) (*models.Store, error) {
	var s models.Store
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("store", id)
		}
		return nil, apperr.Persistence("load store", err)
	}
	return &s, nil
}

// ensureNameFree fails when a store other than except already uses name.
func ensureNameFree(tx *gorm.DB, name string, except uint) error {
	var n int64
	if err := tx.Model(&models.Store{}).Where("name = ? AND id <> ?", name, except).Count(&n).Error; err != nil {
		return apperr.Persistence("check store name", err)
	}
	if n > 0 {
		return &apperr.DuplicateNameError{Name: name}
	}
	return nil
}

// translateCreate covers the race where another writer took the name between
// the check and the write.
func translateCreate(err error, name string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.DuplicateNameError{Name: name}
	}
	return apperr.Persistence("save store", err)
}
