// Package pgtest runs repository tests against the Postgres named by
// DATABASE_URL. Without it every caller is skipped.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"library-backend/internal/config"
	"library-backend/internal/infrastructure/database"
)

// migrateLockKey serializes migrations across test binaries run in parallel.
const migrateLockKey = 7_451_220

// Pool connects, applies migrations and closes the pool when t ends.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	cfg, err := config.LoadDatabaseConfig()
	require.NoError(t, err)
	cfg.MinConns = 0
	cfg.MaxRetries = 1

	ctx := context.Background()
	db := database.NewPostgresDB(cfg)
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Close() })

	conn, err := db.Pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	_, err = conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrateLockKey)
	require.NoError(t, err)
	defer func() {
		_, _ = conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, migrateLockKey)
	}()

	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db.Pool
}

// CreateUser inserts a customer with a unique username.
func CreateUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, username, password_hash, user_type)
		VALUES ($1, $2, 'x', 'customer')`, id, "pgtest-"+id.String())
	require.NoError(t, err)
	return id
}

// CreateBook inserts a book with a unique title and removes it when t ends.
func CreateBook(t *testing.T, pool *pgxpool.Pool, total, available int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO books (title, author, category, publication_year, total_copies, available_copies)
		VALUES ($1, 'pgtest', 'test', 2000, $2, $3)
		RETURNING book_id`, "pgtest-"+uuid.NewString(), total, available,
	).Scan(&id)
	require.NoError(t, err)
	DropBookOnCleanup(t, pool, id)
	return id
}

// DropBookOnCleanup deletes the book when t ends. Missing books are ignored.
func DropBookOnCleanup(t *testing.T, pool *pgxpool.Pool, id int64) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM books WHERE book_id = $1`, id)
	})
}
