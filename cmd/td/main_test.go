package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/config"
)

func TestResolveConfigAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taskdeck.yml"), []byte("log:\n  level: warn\n"), 0o644))
	t.Cleanup(viper.Reset)

	cfg, err := resolveConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)

	viper.Set("storage-driver", "memory")
	viper.Set("log-level", "debug")
	cfg, err = resolveConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)

	viper.Set("storage-driver", "redis")
	_, err = resolveConfig(dir)
	assert.Error(t, err, "redis needs a dsn")
}

func TestDateAndScoreCells(t *testing.T) {
	v := 7.5
	assert.Equal(t, "7.5", scoreCell(&v))
	assert.Equal(t, "-", scoreCell(nil))
	d := "2024-03-01"
	assert.Equal(t, "2024-03-01", dateCell(&d))
	bad := "soon"
	assert.Equal(t, "-", dateCell(&bad))
}
