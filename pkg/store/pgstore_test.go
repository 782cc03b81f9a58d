package store

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set TEST_DATABASE_URL to run against a real PostgreSQL.
func setupTestPg(t *testing.T) *PgStore {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("PostgreSQL not reachable: %v", err)
	}

	s := NewPgStore(pool)
	require.NoError(t, s.EnsureTable(ctx))
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM kv_entries WHERE key LIKE 'test:%'`)
		s.Close()
	})
	return s
}

func TestPgStore(t *testing.T) {
	s := setupTestPg(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "test:tasks")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "test:tasks", []byte(`[{"id":"a"}]`)))
	require.NoError(t, s.Set(ctx, "test:tasks", []byte(`[]`)))

	got, err := s.Get(ctx, "test:tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
}
