package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"comedor-backend/internal/config"
	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
)

var DB *gorm.DB

// Init opens the configured database, migrates it and stores the handle in DB.
func Init(cfg *config.Config) error {
	db, err := Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	if err := SeedShifts(db); err != nil {
		return err
	}
	DB = db
	logging.Info(context.Background(), "database ready", slog.String("driver", cfg.DBDriver))
	return nil
}

// Open connects with postgres (central store) or sqlite (single station, tests).
func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch strings.ToLower(driver) {
	case "", "postgres", "postgresql":
		db, err := gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	case "sqlite", "sqlite3":
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		db, err := gorm.Open(gormsqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite has a single writer; queue writes instead of failing with SQLITE_BUSY.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Worker{},
		&models.Shift{},
		&models.MealRecord{},
		&models.BulkMealRecord{},
		&models.AuditEntry{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedShifts inserts the default meal services when the table is empty.
func SeedShifts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Shift{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count shifts: %w", err)
	}
	if count > 0 {
		return nil
	}

	shifts := models.DefaultShifts()
	if err := db.Create(&shifts).Error; err != nil {
		return fmt.Errorf("seed shifts: %w", err)
	}
	logging.Info(context.Background(), "default shifts seeded", slog.Int("count", len(shifts)))
	return nil
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(strings.TrimSpace(dsn), "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite directory %q: %w", dir, err)
	}
	return nil
}
