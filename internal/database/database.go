package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"clinicbook/internal/domain/availability"
	"clinicbook/internal/domain/booking"
	"clinicbook/internal/domain/catalog"
)

type Options struct {
	MaxOpenConns int
	Log          *zap.Logger
}

// IsPostgres reports whether dsn selects the PostgreSQL driver.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Connect opens PostgreSQL for postgres:// DSNs and the pure-Go SQLite
// driver for anything else. SQLite gets a single connection so writers
// queue instead of failing with "database is locked".
func Connect(dsn string, opts Options) (*gorm.DB, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	if IsPostgres(dsn) {
		log.Info("connecting to PostgreSQL")
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
	} else {
		log.Info("using SQLite", zap.String("dsn", dsn))
		db, err = gorm.Open(
			gormsqlite.New(gormsqlite.Config{
				DriverName: "sqlite",
				DSN:        dsn,
			}),
			gcfg,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if IsPostgres(dsn) {
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
			sqlDB.SetMaxIdleConns(opts.MaxOpenConns / 2)
		}
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	for _, m := range []func(*gorm.DB) error{catalog.Migrate, availability.Migrate, booking.Migrate} {
		if err := m(db); err != nil {
			return err
		}
	}
	return nil
}
