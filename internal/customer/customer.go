// Package customer mirrors the customers registered through the bot in PostgreSQL.
package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("customer not found")

// Customer is the local record of a backend customer.
type Customer struct {
	ID         int64     `db:"id"`
	ChatID     int64     `db:"chat_id"`
	ExternalID string    `db:"external_id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Repository stores customers keyed by chat id.
type Repository struct {
	db  *sqlx.DB
	log *slog.Logger
}

func NewRepository(db *sqlx.DB, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}

	return &Repository{db: db, log: log}
}

// Save inserts the customer or refreshes the record of the same chat.
func (r *Repository) Save(ctx context.Context, c *Customer) error {
	const query = `
		INSERT INTO customers (chat_id, external_id, name, email)
		VALUES (:chat_id, :external_id, :name, :email)
		ON CONFLICT (chat_id) DO UPDATE
		SET external_id = EXCLUDED.external_id,
		    name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, c)
	if err != nil {
		r.log.Error("failed to save customer", slog.Int64("chat_id", c.ChatID), slog.Any("error", err))
		return fmt.Errorf("upsert customer: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return fmt.Errorf("scan customer: %w", err)
		}
	}

	return rows.Err()
}

// FindByChatID returns the customer registered from a chat.
func (r *Repository) FindByChatID(ctx context.Context, chatID int64) (*Customer, error) {
	const query = `
		SELECT id, chat_id, external_id, name, email, created_at, updated_at
		FROM customers
		WHERE chat_id = $1
	`

	var c Customer
	if err := r.db.GetContext(ctx, &c, query, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.log.Error("failed to fetch customer", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return nil, fmt.Errorf("select customer: %w", err)
	}

	return &c, nil
}

// Count returns the number of registered customers.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM customers`); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}
