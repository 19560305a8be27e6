package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gms_backend/pkg/config"
	"gms_backend/pkg/models"
)

// Open connects to PostgreSQL and returns the handle. The handle is passed
// to handlers explicitly; there is no package-level connection.
func Open() (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		PrepareStmt: false,
	}

	if config.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  config.AppConfig.DatabaseURL,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	logrus.Info("Database connection established")

	return db, nil
}

// AutoMigrate runs auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		// Tenancy
		&models.Business{},
		&models.City{},
		&models.Garage{},

		// Identity & access
		&models.Role{},
		&models.Module{},
		&models.Submodule{},
		&models.Permission{},
		&models.RolePermission{},
		&models.BusinessPermission{},
		&models.User{},
		&models.UserGarage{},
		&models.UserCity{},
		&models.UserActiveGarage{},

		// Mobile API
		&models.Subscriber{},

		// Audit
		&models.AuditLog{},

		// Inventory
		&models.Category{},
		&models.Brand{},
		&models.Supplier{},
		&models.ProductCatalogue{},
		&models.StockInward{},
		&models.StockOutward{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting database instance")
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database")
	} else {
		logrus.Info("Database connection closed")
	}
}
