package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lattivo/habits-api/internal/config"
	"github.com/lattivo/habits-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrConfiguration means storage could not be reached at startup. The
// process must not serve traffic after it.
var ErrConfiguration = errors.New("storage configuration error")

// Connect opens the database named by cfg.DatabaseURL and checks that it
// answers.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector := Dialector(cfg.DatabaseURL)

	logLevel := logger.Warn
	if cfg.LogLevel == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConfiguration, dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if dialector.Name() == "sqlite" {
		// One connection keeps ":memory:" a single database and matches
		// SQLite's single writer.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%w: ping %s: %v", ErrConfiguration, dialector.Name(), err)
	}

	return db, nil
}

// Dialector uses PostgreSQL if the URL starts with postgres, otherwise SQLite.
func Dialector(url string) gorm.Dialector {
	if strings.HasPrefix(url, "postgres") {
		return postgres.Open(url)
	}
	return sqlite.Open(url)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Habit{},
		&models.HabitLog{},
	)
}

// Reset drops and recreates every table.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.HabitLog{}, &models.Habit{}); err != nil {
		return err
	}
	return Migrate(db)
}
