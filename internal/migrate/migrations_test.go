package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/db"
)

func TestMigrateIsRepeatable(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir(), Dialect: db.SQLite})
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	v, err := Migrate(ctx, conn, db.SQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = Migrate(ctx, conn, db.SQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = conn.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES ('k', 'v', 'now')`)
	require.NoError(t, err)
}

func TestLoadMigrationsSorted(t *testing.T) {
	ms, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Version, ms[i].Version)
	}
}
