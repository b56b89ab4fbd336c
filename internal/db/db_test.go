package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	conn, err := Open(Config{Workspace: dir, Dialect: SQLite})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.Ping())

	_, err = os.Stat(filepath.Join(dir, ".taskdeck", "taskdeck.db"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".taskdeck", "taskdeck.db"), Path(dir))
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(Config{Dialect: Postgres})
	assert.Error(t, err)
	_, err = Open(Config{Dialect: "oracle"})
	assert.Error(t, err)
}
