package postgres

import (
	"errors"

	"github.com/aussiebroadwan/toolgate/internal/gate/store/drivers/postgres/migrations"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrMigrationsNeedPool is returned when the store was built around a pool
// that is not a *pgxpool.Pool, so no database/sql handle can be derived.
var ErrMigrationsNeedPool = errors.New("postgres: migrations need a store opened with Open")

// ApplyMigrations applies any pending migrations from the files embedded in
// the binary.
func (s *Store) ApplyMigrations() error {
	if s.pgxPool == nil {
		return ErrMigrationsNeedPool
	}

	driver, err := pgxmigrate.WithInstance(stdlib.OpenDBFromPool(s.pgxPool), &pgxmigrate.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
