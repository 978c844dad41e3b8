package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/config"
)

// Migrate applies any pending schema migrations from cfg.MigrationsDir.
func Migrate(cfg *config.Config) error {
	m, err := migrate.New("file://"+cfg.MigrationsDir, DSN(cfg))
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
