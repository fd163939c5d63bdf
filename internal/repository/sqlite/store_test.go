package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
)

func newTestCatalog(t *testing.T) *mediaRepo.Catalog {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, Config{
		Path:        fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		TablePrefix: "test_",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store.Catalog()
}

func seedStorage(t *testing.T, catalog *mediaRepo.Catalog) *models.Storage {
	t.Helper()
	storage := &models.Storage{ID: uuid.NewString(), Name: "App Storage", Location: "app", Disk: "local"}
	require.NoError(t, catalog.Storages.Create(context.Background(), storage))
	return storage
}

func seedFolder(t *testing.T, catalog *mediaRepo.Catalog, storage *models.Storage, parent *models.Folder, name string) *models.Folder {
	t.Helper()
	folder := &models.Folder{ID: uuid.NewString(), StorageID: storage.ID, Name: name}
	if parent != nil {
		folder.ParentID = &parent.ID
		folder.Location = parent.FullPath()
	}
	require.NoError(t, catalog.Folders.Create(context.Background(), folder))
	return folder
}

func seedFile(t *testing.T, catalog *mediaRepo.Catalog, storage *models.Storage, folder *models.Folder, name string) *models.File {
	t.Helper()
	id := uuid.NewString()
	file := &models.File{
		ID:        id,
		StorageID: storage.ID,
		Fqfn:      id + "-" + name,
		Name:      name,
		Filename:  name + ".txt",
		Mime:      "plain",
		Mimetype:  "text/plain",
		Type:      "plain",
	}
	if folder != nil {
		file.FolderID = &folder.ID
		file.Location = folder.FullPath()
	}
	require.NoError(t, catalog.Files.Create(context.Background(), file))
	return file
}

func TestFolderUniqueness(t *testing.T) {
	catalog := newTestCatalog(t)
	storage := seedStorage(t, catalog)
	images := seedFolder(t, catalog, storage, nil, "Images")

	dup := &models.Folder{ID: uuid.NewString(), StorageID: storage.ID, Name: "Images"}
	err := catalog.Folders.Create(context.Background(), dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)

	// Same name under a different parent is fine
	seedFolder(t, catalog, storage, images, "Images")
}

func TestFileUniqueness_RootFiles(t *testing.T) {
	catalog := newTestCatalog(t)
	storage := seedStorage(t, catalog)
	seedFile(t, catalog, storage, nil, "report")

	id := uuid.NewString()
	dup := &models.File{
		ID: id, StorageID: storage.ID, Fqfn: id + "-report", Name: "report",
		Filename: "report.txt", Mime: "plain", Mimetype: "text/plain", Type: "plain",
	}
	err := catalog.Files.Create(context.Background(), dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
}

func TestStorageUniqueness(t *testing.T) {
	catalog := newTestCatalog(t)
	seedStorage(t, catalog)

	dup := &models.Storage{ID: uuid.NewString(), Name: "App Storage", Location: "app", Disk: "local"}
	assert.ErrorIs(t, catalog.Storages.Create(context.Background(), dup), domain.ErrDuplicateNode)
}

func TestGetByID_Scopes(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)
	storage := seedStorage(t, catalog)
	folder := seedFolder(t, catalog, storage, nil, "Images")

	require.NoError(t, catalog.Folders.Trash(ctx, folder.ID, time.Now().UTC()))

	_, err := catalog.Folders.GetByID(ctx, folder.ID, storage.ID, mediaRepo.ActiveOnly)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	trashed, err := catalog.Folders.GetByID(ctx, folder.ID, storage.ID, mediaRepo.OnlyTrashed)
	require.NoError(t, err)
	assert.Equal(t, models.StateTrashed, trashed.State())

	require.NoError(t, catalog.Folders.Restore(ctx, folder.ID))
	restored, err := catalog.Folders.GetByID(ctx, folder.ID, "", mediaRepo.ActiveOnly)
	require.NoError(t, err)
	assert.Equal(t, models.StateActive, restored.State())
}

func TestEmptyFolders(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)
	storage := seedStorage(t, catalog)

	withFile := seedFolder(t, catalog, storage, nil, "WithFile")
	seedFile(t, catalog, storage, withFile, "doc")

	parent := seedFolder(t, catalog, storage, nil, "Parent")
	child := seedFolder(t, catalog, storage, parent, "Child")

	shared := seedFolder(t, catalog, storage, nil, "Shared")
	underShared := seedFolder(t, catalog, storage, shared, "UnderShared")
	require.NoError(t, catalog.Shares.Create(ctx, &models.SharedContent{
		ID: uuid.NewString(), Name: "share", ShareableKind: models.ShareableFolder, ShareableID: shared.ID,
		AccessType: models.AccessTypeToken,
	}))

	lonely := seedFolder(t, catalog, storage, nil, "Lonely")

	candidates, err := catalog.Folders.EmptyFolders(ctx, mediaRepo.SweepQuery{Limit: 100})
	require.NoError(t, err)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{child.ID, lonely.ID}, ids)
	assert.NotContains(t, ids, underShared.ID)
}

func TestLonelyFiles(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)
	storage := seedStorage(t, catalog)

	lonely := seedFile(t, catalog, storage, nil, "lonely")
	linked := seedFile(t, catalog, storage, nil, "linked")
	require.NoError(t, catalog.Fileables.Link(ctx, linked.ID, models.OwnerRef{Kind: "post", ID: "1"}))
	// Linking twice is a no-op
	require.NoError(t, catalog.Fileables.Link(ctx, linked.ID, models.OwnerRef{Kind: "post", ID: "1"}))

	owned := seedFile(t, catalog, storage, nil, "owned")
	kind, ownerID := "user", "7"
	owned.OwnerKind, owned.OwnerID = &kind, &ownerID
	require.NoError(t, catalog.Files.Update(ctx, owned))

	old := time.Now().UTC().AddDate(0, 0, -30)
	candidates, err := catalog.Files.LonelyFiles(ctx, mediaRepo.SweepQuery{Limit: 100})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, lonely.ID, candidates[0].ID)

	candidates, err = catalog.Files.LonelyFiles(ctx, mediaRepo.SweepQuery{OlderThan: &old, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, candidates)

	count, err := catalog.Fileables.CountByFile(ctx, linked.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)
	storage := seedStorage(t, catalog)

	boom := fmt.Errorf("boom")
	err := catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		folder := &models.Folder{ID: uuid.NewString(), StorageID: storage.ID, Name: "Temp"}
		if err := catalog.Folders.Create(txCtx, folder); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = catalog.Folders.GetByPath(ctx, storage.ID, "", "Temp", mediaRepo.WithTrashed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactionSavepoint(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog(t)
	storage := seedStorage(t, catalog)
	seedFolder(t, catalog, storage, nil, "Images")

	err := catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		kept := &models.Folder{ID: uuid.NewString(), StorageID: storage.ID, Name: "Kept"}
		if err := catalog.Folders.Create(txCtx, kept); err != nil {
			return err
		}

		inner := catalog.Tx.ExecTx(txCtx, func(innerCtx context.Context) error {
			dup := &models.Folder{ID: uuid.NewString(), StorageID: storage.ID, Name: "Images"}
			return catalog.Folders.Create(innerCtx, dup)
		})
		assert.ErrorIs(t, inner, domain.ErrDuplicateNode)
		return nil
	})
	require.NoError(t, err)

	_, err = catalog.Folders.GetByPath(ctx, storage.ID, "", "Kept", mediaRepo.ActiveOnly)
	assert.NoError(t, err)
}
