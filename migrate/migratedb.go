package main

import (
	"github.com/sirupsen/logrus"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/config"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/database"
)

// Applies the schema: versioned SQL migrations on Postgres, AutoMigrate on SQLite.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Error loading configuration: %v", err)
	}

	logrus.WithField("driver", cfg.DBDriver).Info("Running database migrations...")

	if cfg.DBDriver == config.DriverPostgres {
		version, err := database.MigrateUp(cfg.DatabaseURL())
		if err != nil {
			logrus.Fatalf("Failed to migrate database: %v", err)
		}
		logrus.WithField("version", version).Info("Database migrated successfully!")
		return
	}

	db, err := database.ConnectToDB(cfg, logrus.StandardLogger())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	logrus.Info("Database migrated successfully!")
}
