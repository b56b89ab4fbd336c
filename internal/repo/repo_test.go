package repo

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/db"
	"taskdeck/internal/migrate"
)

func exerciseBlobStore(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "test_missing")
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	require.NoError(t, store.Put(ctx, "test_projects", `[{"id":"a"}]`))
	v, err := store.Get(ctx, "test_projects")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, store.Put(ctx, "test_projects", `[]`))
	v, err = store.Get(ctx, "test_projects")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, store.Delete(ctx, "test_projects"))
	_, err = store.Get(ctx, "test_projects")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting an absent key is not an error.
	require.NoError(t, store.Delete(ctx, "test_projects"))
}

func TestMemoryBlobs(t *testing.T) {
	exerciseBlobStore(t, NewMemoryBlobs())
}

func TestMemoryBlobsFail(t *testing.T) {
	m := NewMemoryBlobs()
	m.Fail = errors.New("disk full")
	assert.Error(t, m.Put(context.Background(), "k", "v"))
	assert.Empty(t, m.Keys())
}

func TestSQLiteBlobs(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir(), Dialect: db.SQLite})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(context.Background(), conn, db.SQLite)
	require.NoError(t, err)

	exerciseBlobStore(t, NewSQLBlobs(conn, db.SQLite))
}

func TestPostgresBlobs(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping PostgreSQL integration test")
	}
	conn, err := db.Open(db.Config{Dialect: db.Postgres, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(context.Background(), conn, db.Postgres)
	require.NoError(t, err)

	exerciseBlobStore(t, NewSQLBlobs(conn, db.Postgres))
}

func TestRedisBlobs(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseBlobStore(t, NewRedisBlobs(client))
}

func TestOpenRedisURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, NewRedisBlobs(client).Put(context.Background(), "k", "v"))
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestRebindPostgres(t *testing.T) {
	r := &SQLBlobs{Dialect: db.Postgres}
	assert.Equal(t, "SELECT a FROM kv WHERE key=$1 AND b=$2", r.rebind("SELECT a FROM kv WHERE key=? AND b=?"))
	r.Dialect = db.SQLite
	assert.Equal(t, "key=?", r.rebind("key=?"))
}
