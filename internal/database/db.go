package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inventory-backend/internal/config"
	"inventory-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database. SQLite files get their parent
// directory created on first run.
func Open(cfg *config.Config, l logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DatabaseDSN); dir != "." && cfg.DatabaseDSN != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	logLevel := gormlogger.Warn
	if cfg.SQLDebug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(l, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", cfg.DatabaseDriver, err)
	}
	if cfg.DatabaseDriver == config.DriverSQLite {
		// one writer at a time; concurrent requests queue on the pool
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	l.WithField("driver", cfg.DatabaseDriver).Info("Database connection established.")
	return db, nil
}

// Migrate brings the schema up to date. Databases created by the single-store
// version of the tracker are patched in place before AutoMigrate runs.
func Migrate(db *gorm.DB, l logrus.FieldLogger, defaultStoreName string) error {
	if err := patchLegacyInventory(db, l); err != nil {
		return err
	}

	if err := db.AutoMigrate(&models.Store{}, &models.Item{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if _, err := normalizeActive(db, l); err != nil {
		return err
	}
	if err := ensureDefaultStore(db, l, defaultStoreName); err != nil {
		return err
	}
	l.Info("Database migration complete.")
	return nil
}

func patchLegacyInventory(db *gorm.DB, l logrus.FieldLogger) error {
	m := db.Migrator()
	if !m.HasTable(&models.Item{}) {
		return nil
	}

	cols, err := inventoryColumns(db)
	if err != nil {
		return err
	}

	renames := [][2]string{
		{"currentCount", "current_count"},
		{"targetAmount", "target_amount"},
	}
	for _, r := range renames {
		if cols[r[0]] && !cols[r[1]] {
			l.Infof("Renaming inventory.%s to %s...", r[0], r[1])
			if err := db.Exec(fmt.Sprintf(`ALTER TABLE inventory RENAME COLUMN "%s" TO %s`, r[0], r[1])).Error; err != nil {
				return fmt.Errorf("rename column %s: %w", r[0], err)
			}
			cols[r[1]] = true
		}
	}

	if !cols["store_id"] {
		l.Info("Adding inventory.store_id, existing items go to store 1...")
		if err := db.Exec("ALTER TABLE inventory ADD COLUMN store_id INTEGER NOT NULL DEFAULT 1").Error; err != nil {
			return fmt.Errorf("add store_id column: %w", err)
		}
	}

	// NULLs predate the NOT NULL constraints AutoMigrate is about to apply.
	for _, col := range []string{"current_count", "target_amount", "extra"} {
		if !cols[col] {
			continue
		}
		res := db.Exec(fmt.Sprintf("UPDATE inventory SET %s = 0 WHERE %s IS NULL", col, col))
		if res.Error != nil {
			return fmt.Errorf("normalize %s: %w", col, res.Error)
		}
		if res.RowsAffected > 0 {
			l.Infof("Updated %d inventory rows with NULL %s to 0.", res.RowsAffected, col)
		}
	}
	if cols["active"] {
		if _, err := normalizeActive(db, l); err != nil {
			return err
		}
	}
	return nil
}

// inventoryColumns lists the physical columns of the inventory table. Names
// are looked up on the table itself so legacy camelCase columns are not
// mapped through the Item schema.
func inventoryColumns(db *gorm.DB) (map[string]bool, error) {
	types, err := db.Migrator().ColumnTypes(models.Item{}.TableName())
	if err != nil {
		return nil, fmt.Errorf("inspect inventory columns: %w", err)
	}
	cols := make(map[string]bool, len(types))
	for _, ct := range types {
		cols[ct.Name()] = true
	}
	return cols, nil
}

// normalizeActive rewrites legacy NULL active flags to true and returns the
// number of rows changed.
func normalizeActive(db *gorm.DB, l logrus.FieldLogger) (int64, error) {
	res := db.Exec("UPDATE inventory SET active = ? WHERE active IS NULL", true)
	if res.Error != nil {
		return 0, fmt.Errorf("normalize active flags: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		l.Infof("Updated %d inventory rows from NULL to active.", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// ensureDefaultStore creates the default store on an empty stores table and
// moves items that point at no store onto the first store.
func ensureDefaultStore(db *gorm.DB, l logrus.FieldLogger, name string) error {
	var count int64
	if err := db.Model(&models.Store{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count stores: %w", err)
	}
	if count == 0 {
		s := models.Store{Name: name}
		if err := db.Create(&s).Error; err != nil {
			return fmt.Errorf("create default store: %w", err)
		}
		l.WithField("store_id", s.ID).Infof("Created %s.", name)
	}

	var first models.Store
	if err := db.Order("id").First(&first).Error; err != nil {
		return fmt.Errorf("load first store: %w", err)
	}
	res := db.Exec("UPDATE inventory SET store_id = ? WHERE store_id NOT IN (SELECT id FROM stores)", first.ID)
	if res.Error != nil {
		return fmt.Errorf("reassign orphaned items: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		l.Warnf("Moved %d orphaned inventory items to store %d (%s).", res.RowsAffected, first.ID, first.Name)
	}
	return nil
}
