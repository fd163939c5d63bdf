package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medialib/internal/backend/fsdisk"
	"medialib/internal/config"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
)

func newMemoryRegistry(t *testing.T) (*Registry, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	registry := NewRegistry(NewMetrics(reg), nil)
	registry.Register("mem", fsdisk.NewMemory(fsdisk.WithURL("/storage"), fsdisk.WithSigningKey("secret")))
	return registry, reg
}

func TestRegistry_PutGetMove(t *testing.T) {
	ctx := context.Background()
	registry, _ := newMemoryRegistry(t)

	require.NoError(t, registry.Put(ctx, "mem", "media/files/app/Images/f1/photo.jpg", []byte("jpeg"), models.VisibilityPublic))
	require.NoError(t, registry.Put(ctx, "mem", "media/files/app/Images/f1/photo-thumb.jpg", []byte("thumb"), models.VisibilityPublic))

	require.NoError(t, registry.Move(ctx, "mem", "media/files/app/Images", "media/files/app/Archive/Images"))

	exists, err := registry.Exists(ctx, "mem", "media/files/app/Images")
	require.NoError(t, err)
	assert.False(t, exists)

	data, err := registry.Get(ctx, "mem", "media/files/app/Archive/Images/f1/photo-thumb.jpg")
	require.NoError(t, err)
	assert.Equal(t, "thumb", string(data))
}

func TestRegistry_WrapsDriverErrors(t *testing.T) {
	ctx := context.Background()
	registry, reg := newMemoryRegistry(t)

	_, err := registry.Get(ctx, "mem", "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendIO)

	var ioErr *domain.BackendIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "get", ioErr.Operation)

	failures := testutil.ToFloat64(registry.metrics.operationsTotal.WithLabelValues("mem", "get", "error"))
	assert.Equal(t, float64(1), failures)

	count, err := testutil.GatherAndCount(reg, "medialib_backend_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegistry_UnknownDisk(t *testing.T) {
	registry, _ := newMemoryRegistry(t)

	err := registry.Delete(context.Background(), "nope", "a")
	assert.ErrorIs(t, err, domain.ErrBackendIO)
	assert.ErrorIs(t, err, ErrUnknownDisk)
}

func TestRegistry_NilMetrics(t *testing.T) {
	registry := NewRegistry(nil, nil)
	registry.Register("mem", fsdisk.NewMemory())

	assert.NoError(t, registry.MakeDirectory(context.Background(), "mem", "a/b", models.VisibilityPrivate))
}

func TestOpen(t *testing.T) {
	registry, err := Open(context.Background(), map[string]config.DiskConfig{
		"local":  {Driver: "local", Root: t.TempDir(), URL: "/storage"},
		"memory": {Driver: "memory"},
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"local", "memory"}, registry.Names())

	_, err = Open(context.Background(), map[string]config.DiskConfig{"ftp": {Driver: "ftp"}}, nil, nil)
	assert.Error(t, err)
}
