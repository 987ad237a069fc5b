// Package database opens the PostgreSQL pool and applies schema migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Proton-105/fish-shop-bot/pkg/config"
)

const connectTimeout = 5 * time.Second

// Connect opens the database connection and verifies connectivity.
func Connect(ctx context.Context, cfg config.PostgresConfig, log *slog.Logger) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		log.Error("db connect failed",
			slog.String("host", cfg.Host),
			slog.Int("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	log.Info("db connected",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Duration("duration", time.Since(start)),
	)

	return db, nil
}
