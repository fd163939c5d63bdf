package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
)

func TestStorage_ResolvePreset(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, "App Storage", env.storage.Name)
	assert.Equal(t, "app", env.storage.Location)
	assert.Equal(t, "local", env.storage.Disk)

	again, err := env.services.Storages.Resolve(env.ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, env.storage.ID, again.ID)

	byID, err := env.services.Storages.Resolve(env.ctx, env.storage.ID)
	require.NoError(t, err)
	assert.Equal(t, env.storage.ID, byID.ID)

	_, err = env.services.Storages.Resolve(env.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStorage_Create(t *testing.T) {
	env := newTestEnv(t)

	private := true
	storage, err := env.services.Storages.Create(env.ctx, &mediaSvc.CreateStorageRequest{Name: "Client Uploads", Private: &private})
	require.NoError(t, err)
	assert.Equal(t, "client-uploads", storage.Location)
	assert.Equal(t, env.cfg.Storage.Disk, storage.Disk)
	assert.True(t, storage.Private)

	_, err = env.services.Storages.Create(env.ctx, &mediaSvc.CreateStorageRequest{Name: "Client Uploads"})
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)

	_, err = env.services.Storages.Create(env.ctx, &mediaSvc.CreateStorageRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStorage_UpdateImmutableWhenNotEmpty(t *testing.T) {
	env := newTestEnv(t)

	empty, err := env.services.Storages.Create(env.ctx, &mediaSvc.CreateStorageRequest{Name: "Scratch"})
	require.NoError(t, err)
	location := "scratch-two"
	moved, err := env.services.Storages.Update(env.ctx, empty.ID, &mediaSvc.UpdateStorageRequest{Location: &location})
	require.NoError(t, err)
	assert.Equal(t, "scratch-two", moved.Location)

	env.assert(t, "Images")

	location = "elsewhere"
	_, err = env.services.Storages.Update(env.ctx, env.storage.ID, &mediaSvc.UpdateStorageRequest{Location: &location})
	assert.ErrorIs(t, err, domain.ErrStorageLocationImmutable)

	disk := "s3"
	_, err = env.services.Storages.Update(env.ctx, env.storage.ID, &mediaSvc.UpdateStorageRequest{Disk: &disk})
	assert.ErrorIs(t, err, domain.ErrStorageDiskImmutable)

	name := "Renamed"
	private := true
	updated, err := env.services.Storages.Update(env.ctx, env.storage.ID, &mediaSvc.UpdateStorageRequest{Name: &name, Private: &private})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.Private)
}

func TestStorage_Usage(t *testing.T) {
	env := newTestEnv(t)

	env.upload(t, "Images", "a.jpg", "12345")
	env.upload(t, "", "b.jpg", "123")

	usage, err := env.services.Storages.Usage(env.ctx, env.storage)
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage.Folders)
	assert.Equal(t, int64(2), usage.Files)
	assert.Equal(t, int64(8), usage.UsedBytes)

	empty, err := env.services.Storages.IsEmpty(env.ctx, env.storage)
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestStorage_Capacity(t *testing.T) {
	env := newTestEnv(t)

	capacity := int64(6)
	_, err := env.services.Storages.Update(env.ctx, env.storage.ID, &mediaSvc.UpdateStorageRequest{Capacity: &capacity})
	require.NoError(t, err)
	storage, err := env.services.Storages.Get(env.ctx, env.storage.ID)
	require.NoError(t, err)

	_, err = env.services.Files.CreateFile(env.ctx, storage, &mediaSvc.CreateFileRequest{Filename: "a.jpg", Content: []byte("1234")})
	require.NoError(t, err)
	_, err = env.services.Files.CreateFile(env.ctx, storage, &mediaSvc.CreateFileRequest{Filename: "b.jpg", Content: []byte("1234")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStorage_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "Images", "a.jpg", "a")

	err := env.services.Storages.Purge(env.ctx, env.storage, true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, env.services.Storages.Trash(env.ctx, env.storage))
	_, err = env.services.Storages.Get(env.ctx, env.storage.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = env.services.Storages.Purge(env.ctx, env.storage, false)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, env.services.Storages.Purge(env.ctx, env.storage, true))
	_, err = env.catalog.Storages.GetByID(env.ctx, env.storage.ID, mediaRepo.WithTrashed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, env.exists(t, "media/files/app"))

	folders, files := env.counts(t)
	assert.Zero(t, folders)
	assert.Zero(t, files)
}

func TestStorage_RestoreAfterTrash(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.services.Storages.Trash(env.ctx, env.storage))
	trashed, err := env.catalog.Storages.GetByID(env.ctx, env.storage.ID, mediaRepo.WithTrashed)
	require.NoError(t, err)
	assert.Equal(t, models.StateTrashed, trashed.State())

	require.NoError(t, env.services.Storages.Restore(env.ctx, trashed))
	active, err := env.services.Storages.Get(env.ctx, env.storage.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateActive, active.State())
}
