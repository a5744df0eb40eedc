package database

import (
	"fmt"
	"time"

	"example.com/backstage/services/picking/config"
	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection and registers metric hooks
func Connect(cfg config.DatabaseConfig, collector *metrics.Metrics) (*gorm.DB, error) {
	logLevel := logger.Error
	if cfg.Debug {
		logLevel = logger.Info
	}

	gormLogger := logger.New(
		&logAdapter{},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if collector != nil {
		if err := RegisterMetricsHooks(db, collector); err != nil {
			return nil, fmt.Errorf("failed to register database hooks: %w", err)
		}
	}

	return db, nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Warehouse{},
		&models.User{},
		&models.Location{},
		&models.Product{},
		&models.Carrier{},
		&models.PickList{},
		&models.Pick{},
	)
}

// Ping checks that the database answers
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// logAdapter routes gorm log output through zerolog
type logAdapter struct{}

func (l *logAdapter) Printf(format string, args ...interface{}) {
	log.Debug().Str("component", "gorm").Msgf(format, args...)
}
