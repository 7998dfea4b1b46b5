package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func runMigrations(sqlDB *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// AutoMigrate creates the schema from the gorm models. The goose migrations
// remain the source of truth for postgres.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&model.User{},
		&model.Admin{},
		&model.Department{},
		&model.Worker{},
		&model.Complaint{},
		&model.ComplaintStatusLog{},
	)
}
