package customer

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
CREATE TEMP TABLE customers (
    id          BIGSERIAL PRIMARY KEY,
    chat_id     BIGINT      NOT NULL UNIQUE,
    external_id TEXT        NOT NULL DEFAULT '',
    name        TEXT        NOT NULL,
    email       TEXT        NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Runs against a disposable database named by TEST_POSTGRES_DSN.
func setupRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// temp tables are per connection
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	require.NoError(t, err)

	return NewRepository(db, nil)
}

func TestRepository_SaveAndFind(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	c := &Customer{ChatID: 42, ExternalID: "c-1", Name: "Ann_42", Email: "ann@example.com"}
	require.NoError(t, repo.Save(ctx, c))
	assert.NotZero(t, c.ID)

	found, err := repo.FindByChatID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "c-1", found.ExternalID)
	assert.Equal(t, "ann@example.com", found.Email)

	c.Email = "ann@example.org"
	require.NoError(t, repo.Save(ctx, c))

	found, err = repo.FindByChatID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.org", found.Email)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepository_NotFound(t *testing.T) {
	repo := setupRepository(t)

	_, err := repo.FindByChatID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}
