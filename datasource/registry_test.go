package datasource

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/nexus/metrics"
)

func TestRegistryLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(DefaultSettings())
	t.Cleanup(func() { _ = reg.Close() })

	require.NoError(t, reg.Add(ctx, Config{ID: "b", Type: TypeDuckDB}))
	require.NoError(t, reg.Add(ctx, Config{ID: "a", Type: TypeDuckDB, Password: "hunter2"}))
	assert.Equal(t, []string{"a", "b"}, reg.IDs())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DatasourcesRegistered))

	cfgs := reg.Configs()
	require.Len(t, cfgs, 2)
	assert.Equal(t, "********", cfgs[0].Password)

	res, err := reg.Query(ctx, "a", "SELECT 42 AS answer")
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.Value(0, 0))

	// Re-adding an ID replaces the source.
	require.NoError(t, reg.Add(ctx, Config{ID: "a", Type: TypeDuckDB, Name: "renamed"}))
	src, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", src.Config().Name)
	assert.Len(t, reg.IDs(), 2)

	require.NoError(t, reg.Remove("b"))
	assert.Equal(t, []string{"a"}, reg.IDs())
	assert.ErrorIs(t, reg.Remove("b"), ErrUnknownDatasource)

	require.NoError(t, reg.Close())
	assert.Empty(t, reg.IDs())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DatasourcesRegistered))
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry(DefaultSettings())
	_, err := reg.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownDatasource)
	_, err = reg.Query(context.Background(), "nope", "SELECT 1")
	assert.ErrorIs(t, err, ErrUnknownDatasource)
}

func TestRegistryTestDoesNotRegister(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(DefaultSettings())

	require.NoError(t, reg.Test(ctx, Config{ID: "scratch", Type: TypeDuckDB}))
	assert.Empty(t, reg.IDs())

	err := reg.Test(ctx, Config{ID: "down", Type: TypePostgres, Host: "127.0.0.1", Port: 1, Database: "x", SSLMode: "disable"})
	assert.Error(t, err)

	assert.Error(t, reg.Add(ctx, Config{ID: "invalid", Type: TypePostgres}))
	assert.Empty(t, reg.IDs())
}
