package db

import (
	"fmt"
	"strings"

	"kritika/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the database behind dsn. A postgres:// DSN (or the
// key=value form) selects the Postgres driver; anything else, including an
// empty DSN, falls back to a local SQLite file for development.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}

	var (
		conn *gorm.DB
		err  error
	)
	switch {
	case dsn == "":
		conn, err = gorm.Open(sqlite.Open("kritika.db"), cfg)
	case strings.HasPrefix(dsn, "postgres://"), strings.Contains(dsn, "host="):
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
	default:
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Migrate creates or updates the schema for all domain models.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.GenreTitle{},
		&models.Review{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
