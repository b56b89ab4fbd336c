package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/config"
	"taskdeck/internal/domain"
)

func TestOpenSQLitePersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	a, err := Open(ctx, dir, config.Default(), nil)
	require.NoError(t, err)
	_, err = a.Store.AddTask(ctx, domain.TaskInput{Title: "survives"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open(ctx, dir, config.Default(), nil)
	require.NoError(t, err)
	defer b.Close()
	tasks := b.Store.Active().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, "survives", tasks[0].Title)
}

func TestOpenRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.Default()
	cfg.Storage.Driver = config.DriverRedis
	cfg.Storage.DSN = "redis://" + mr.Addr()
	a, err := Open(context.Background(), t.TempDir(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, mr.Exists("taskdeck_projects"))
	assert.Equal(t, a.Store.ActiveProjectID(), mustGet(t, mr, "taskdeck_activeProjectId"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "mongo"
	_, err := Open(context.Background(), t.TempDir(), cfg, nil)
	assert.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(config.Log{Level: "debug", Format: "json"}, &buf).Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(config.Log{Level: "warn", Format: "text"}, &buf).Info("hidden")
	assert.Empty(t, buf.String())
}

func TestMetricsFromConfig(t *testing.T) {
	m := Metrics(config.Default().Timeline)
	assert.Equal(t, 48.0, m.DayWidth)
	assert.Equal(t, 4.0, m.Gap)
}
