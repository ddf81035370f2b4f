package database

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"github.com/furkanYanteri1/squadz-site/internal/config"
	_ "github.com/furkanYanteri1/squadz-site/internal/database/migrations"
)

// DB is the process-wide connection pool. Services hold a reference to it so
// tests can swap in their own handle.
var DB *sql.DB

// Init opens the MySQL pool and applies pending migrations.
func Init(cfg *config.Config) error {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	DB = db
	return nil
}
