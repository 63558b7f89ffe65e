package models

import (
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBOptions configures the connection pool.
type DBOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
}

// Connect opens a gorm handle over the lib/pq driver and applies pool limits.
func Connect(opts DBOptions) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	logLevel := logger.Warn
	if opts.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        opts.DSN,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the tables for every entity.
func AutoMigrate(db *gorm.DB, log *slog.Logger) error {
	if err := db.AutoMigrate(&Category{}, &Goods{}, &SalesOrder{}, &SalesOrderLine{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// Superseded by the partial unique index on goods.barcode.
	if m := db.Migrator(); m.HasIndex(&Goods{}, "idx_goods_barcode") {
		if err := m.DropIndex(&Goods{}, "idx_goods_barcode"); err != nil {
			return fmt.Errorf("drop old barcode index: %w", err)
		}
	}
	log.Info("database schema migrated")
	return nil
}
