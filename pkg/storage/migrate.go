package storage

import (
	"embed"
	"fmt"

	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate brings the schema up to date over a database/sql handle borrowed from the pool.
func (psqlInterface *PsqlInterface) Migrate() error {
	db := stdlib.OpenDB(*psqlInterface.Pool.Config().ConnConfig)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	log.Info().Msg("migrations completed successfully")
	return nil
}
