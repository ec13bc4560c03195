package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/config"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/models"
)

const slowQueryThreshold = 200 * time.Millisecond

// ConnectToDB creates and returns a new database connection instance for the configured driver.
func ConnectToDB(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return Open(postgres.Open(cfg.DatabaseURL()), log)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// OpenSQLite opens a SQLite database with foreign keys enforced. Use ":memory:"
// for a throwaway database.
func OpenSQLite(path string, log logrus.FieldLogger) (*gorm.DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := Open(sqlite.Open(dsn), log)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database, and SQLite
	// serializes writers anyway.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Open wraps gorm.Open with the application's logger and error translation.
func Open(dialector gorm.Dialector, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the tables from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.FoodItem{}, &models.Rating{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
