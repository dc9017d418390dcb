// Package database manages the gorm connection and schema migration.
package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fridgewiz/server/internal/config"
)

var schemaRegistry []interface{}

// RegisterSchemaForAutoMigrate adds models to the auto-migration registry.
// Called from dbschema init functions.
func RegisterSchemaForAutoMigrate(models ...interface{}) {
	schemaRegistry = append(schemaRegistry, models...)
}

// Connect opens a postgres connection with the configured pool settings.
func Connect(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error().
			Str("error_code", "8e24c1b7-5d0a-4f93-b6e2-7a18d3c9f045").
			Err(err).
			Msg("unable to connect to database")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)

	log.Info().Msg("connected to database")
	return db, nil
}

// AutoMigrate migrates every registered schema. Separated from Connect so
// tests can migrate an in-memory database.
func AutoMigrate(db *gorm.DB, log zerolog.Logger) error {
	for _, model := range schemaRegistry {
		if err := db.AutoMigrate(model); err != nil {
			log.Error().
				Str("error_code", "17f6a2d9-c483-4b50-8e9d-b0a5f47e21c6").
				Err(err).
				Msgf("failed to auto migrate schema: %T", model)
			return err
		}
	}
	return nil
}

// Ping verifies the connection for health checks.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
