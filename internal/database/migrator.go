package database

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrator applies the versioned *.up.sql files of a directory.
type Migrator struct {
	dir string
	dsn string
	log *slog.Logger
}

func NewMigrator(dir, dsn string, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}

	return &Migrator{dir: dir, dsn: dsn, log: log}
}

// Up migrates the schema to the latest version. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	dir, err := filepath.Abs(m.dir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir %q: %w", m.dir, err)
	}

	mig, err := migrate.New("file://"+filepath.ToSlash(dir), m.dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := mig.Close(); srcErr != nil || dbErr != nil {
			m.log.Warn("failed to close migrator", slog.Any("source_error", srcErr), slog.Any("db_error", dbErr))
		}
	}()

	fromVer, _, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}

	start := time.Now()
	if err := mig.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("schema is up to date", slog.Uint64("version", uint64(fromVer)))
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	toVer, _, err := mig.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	m.log.Info("migrations applied",
		slog.Uint64("from_version", uint64(fromVer)),
		slog.Uint64("to_version", uint64(toVer)),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}
