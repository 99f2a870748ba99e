package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/metrics"
	"github.com/ignite/admissions-crm/internal/reporting"
	"github.com/ignite/admissions-crm/internal/storage"
)

func TestWindowDefaults(t *testing.T) {
	d := WindowDefaults(config.Default().Metrics.Windows)
	assert.Equal(t, metrics.Last4Weeks, d.Director)
	assert.Equal(t, metrics.PriorMonth, d.Manager)
	assert.Equal(t, metrics.Last4Weeks, d.Advisor)
	assert.Equal(t, metrics.PriorMonth, d.Reports)
}

func TestBuildSink(t *testing.T) {
	ctx := context.Background()
	store, err := storage.New(ctx, config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Reports.Sinks = []string{"log"}
	sink, err := BuildSink(ctx, cfg, store)
	require.NoError(t, err)
	assert.IsType(t, reporting.LogSink{}, sink)

	cfg.Reports.Sinks = []string{"log", "archive"}
	sink, err = BuildSink(ctx, cfg, store)
	require.NoError(t, err)
	multi, ok := sink.(reporting.MultiSink)
	require.True(t, ok)
	assert.Len(t, multi, 2)

	cfg.Reports.Sinks = []string{"fax"}
	_, err = BuildSink(ctx, cfg, store)
	assert.ErrorContains(t, err, `unknown report sink "fax"`)
}

func TestStartRequiresDatabaseOutsideDevMode(t *testing.T) {
	cfg := config.Default()
	_, err := Start(context.Background(), cfg)
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestStartDevMode(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.DevMode = true
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Reports.Dir = t.TempDir()

	rt, err := Start(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.DB)
	require.NotNil(t, rt.Redis)
	require.NotNil(t, rt.Services)
	assert.NotNil(t, rt.Services.Runner)
	assert.NotNil(t, rt.Services.Metrics)
}

func TestOpenRedis(t *testing.T) {
	client, err := OpenRedis(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = OpenRedis(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())
}
