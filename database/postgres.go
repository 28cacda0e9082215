package database

import (
	"fmt"
	"time"

	"expenshare-backend/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres pool and migrates the schema.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connected")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database migrated")
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Member{},
		&models.Group{},
		&models.GroupMember{},
		&models.LedgerEntry{},
		&models.EntryParticipant{},
		&models.PairBalance{},
		&models.Settlement{},
		&models.Invitation{},
		&models.Activity{},
		&models.Transaction{},
		&models.MonthlyHistory{},
		&models.OTPRecord{},
		&models.PendingRegistration{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
