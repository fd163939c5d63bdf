package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"medialib/internal/backend"
	"medialib/internal/backend/fsdisk"
	"medialib/internal/config"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/repository/sqlite"
)

type testEnv struct {
	ctx      context.Context
	cfg      *config.Config
	catalog  *mediaRepo.Catalog
	backend  *backend.Registry
	layout   Layout
	services *Services
	storage  *models.Storage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, sqlite.Config{
		Path:        fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		TablePrefix: "test_",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	cfg := config.Default()
	cfg.Disks = map[string]config.DiskConfig{"local": {Driver: "memory", URL: "/storage", SigningKey: "test-key"}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := backend.NewRegistry(nil, logger)
	registry.Register("local", fsdisk.NewMemory(fsdisk.WithURL("/storage"), fsdisk.WithSigningKey("test-key")))

	catalog := store.Catalog()
	services := NewServices(catalog, registry, &cfg, logger)

	storage, err := services.Storages.Resolve(ctx, "")
	require.NoError(t, err)

	return &testEnv{
		ctx:      ctx,
		cfg:      &cfg,
		catalog:  catalog,
		backend:  registry,
		layout:   NewLayout(&cfg),
		services: services,
		storage:  storage,
	}
}

func (e *testEnv) assert(t *testing.T, path string) *models.Folder {
	t.Helper()
	folder, err := e.services.Resolver.Assert(e.ctx, e.storage, path)
	require.NoError(t, err)
	return folder
}

func (e *testEnv) upload(t *testing.T, location, filename, content string) *models.File {
	t.Helper()
	req := &mediaSvc.CreateFileRequest{
		Filename: filename,
		Mimetype: "image/jpeg",
		Content:  []byte(content),
	}
	if location != "" {
		req.Location = &location
	}
	file, err := e.services.Files.CreateFile(e.ctx, e.storage, req)
	require.NoError(t, err)
	return file
}

func (e *testEnv) folder(t *testing.T, id string) *models.Folder {
	t.Helper()
	folder, err := e.catalog.Folders.GetByID(e.ctx, id, "", mediaRepo.WithTrashed)
	require.NoError(t, err)
	return folder
}

func (e *testEnv) file(t *testing.T, id string) *models.File {
	t.Helper()
	file, err := e.catalog.Files.GetByID(e.ctx, id, "", mediaRepo.WithTrashed)
	require.NoError(t, err)
	return file
}

func (e *testEnv) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := e.backend.Exists(e.ctx, e.storage.Disk, path)
	require.NoError(t, err)
	return ok
}

func (e *testEnv) counts(t *testing.T) (folders, files int64) {
	t.Helper()
	folders, files, err := e.catalog.Storages.CountContents(e.ctx, e.storage.ID)
	require.NoError(t, err)
	return folders, files
}

type post struct{ id string }

func (p post) MediaOwner() models.OwnerRef { return models.OwnerRef{Kind: "post", ID: p.id} }

var errDiskDown = errors.New("disk unavailable")

// failingDisk fails the operations switched on and delegates the rest.
type failingDisk struct {
	backend.Disk
	move            bool
	deleteDirectory bool
}

func (d *failingDisk) Move(ctx context.Context, from, to string) error {
	if d.move {
		return errDiskDown
	}
	return d.Disk.Move(ctx, from, to)
}

func (d *failingDisk) DeleteDirectory(ctx context.Context, path string) error {
	if d.deleteDirectory {
		return errDiskDown
	}
	return d.Disk.DeleteDirectory(ctx, path)
}

// breakDisk swaps the storage disk for a failingDisk wrapping it.
func (e *testEnv) breakDisk(t *testing.T) *failingDisk {
	t.Helper()
	inner, err := e.backend.Disk(e.storage.Disk)
	require.NoError(t, err)
	disk := &failingDisk{Disk: inner}
	e.backend.Register(e.storage.Disk, disk)
	return disk
}
