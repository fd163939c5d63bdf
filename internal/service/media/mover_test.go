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

func TestMoveFolder_CascadesToDescendants(t *testing.T) {
	env := newTestEnv(t)

	images := env.assert(t, "Images")
	sub := env.assert(t, "Images/Sub")
	deep := env.assert(t, "Images/Sub/Deep")
	other := env.assert(t, "Other")
	f := env.upload(t, "Images", "cover.jpg", "cover")
	g := env.upload(t, "Images/Sub/Deep", "photo.jpg", "photo")
	outside := env.upload(t, "Other", "logo.jpg", "logo")

	moved, err := env.services.Mover.MoveFolder(env.ctx, env.storage, images, mediaSvc.ToPath("/Archive"))
	require.NoError(t, err)
	assert.Equal(t, "Archive", moved.Location)
	require.NotNil(t, moved.ParentID)

	archive := env.folder(t, *moved.ParentID)
	assert.Equal(t, "Archive", archive.Name)

	assert.Equal(t, "Archive", env.folder(t, images.ID).Location)
	assert.Equal(t, "Archive/Images", env.folder(t, sub.ID).Location)
	assert.Equal(t, "Archive/Images/Sub", env.folder(t, deep.ID).Location)
	assert.Equal(t, "Archive/Images", env.file(t, f.ID).Location)
	assert.Equal(t, "Archive/Images/Sub/Deep", env.file(t, g.ID).Location)

	assert.Equal(t, "", env.folder(t, other.ID).Location)
	assert.Equal(t, "Other", env.file(t, outside.ID).Location)

	assert.False(t, env.exists(t, "media/files/app/Images"))
	content, err := env.services.Files.Content(env.ctx, env.storage, env.file(t, g.ID))
	require.NoError(t, err)
	assert.Equal(t, "photo", string(content))

	assertPathInvariant(t, env)
}

// assertPathInvariant checks location == parent full path for every folder and file.
func assertPathInvariant(t *testing.T, env *testEnv) {
	t.Helper()

	var walk func(parentID string, parentPath string)
	walk = func(parentID, parentPath string) {
		children, err := env.catalog.Folders.ListChildren(env.ctx, parentID, mediaRepo.WithTrashed)
		require.NoError(t, err)
		for _, child := range children {
			assert.Equal(t, parentPath, child.Location, "folder %s", child.Name)
			walk(child.ID, child.FullPath())
		}

		files, err := env.catalog.Files.ListByFolder(env.ctx, parentID, mediaRepo.WithTrashed)
		require.NoError(t, err)
		for _, file := range files {
			assert.Equal(t, parentPath, file.Location, "file %s", file.Name)
		}
	}

	roots, err := env.catalog.Folders.Browse(env.ctx, mediaRepo.FolderBrowseQuery{StorageID: env.storage.ID}, 0, 0)
	require.NoError(t, err)
	for _, root := range roots {
		assert.Nil(t, root.ParentID)
		walk(root.ID, root.FullPath())
	}
}

func TestMoveFolder_ToRoot(t *testing.T) {
	env := newTestEnv(t)

	products := env.assert(t, "Images/Products")
	f := env.upload(t, "Images/Products", "shoe.jpg", "shoe")

	moved, err := env.services.Mover.MoveFolder(env.ctx, env.storage, products, mediaSvc.ToRoot())
	require.NoError(t, err)
	assert.Equal(t, "", moved.Location)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "Products", env.file(t, f.ID).Location)
	assert.True(t, env.exists(t, "media/files/app/Products/"+f.ID+"/shoe.jpg"))
}

func TestMoveFolder_Refusals(t *testing.T) {
	env := newTestEnv(t)

	images := env.assert(t, "Images")
	env.assert(t, "Images/Sub")
	env.assert(t, "Archive/Images")

	tests := []struct {
		name string
		dest mediaSvc.Destination
		err  error
	}{
		{"into itself", mediaSvc.ToPath("Images"), domain.ErrValidation},
		{"into own subtree", mediaSvc.ToPath("Images/Sub"), domain.ErrValidation},
		{"name taken at destination", mediaSvc.ToPath("Archive"), domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.services.Mover.MoveFolder(env.ctx, env.storage, images, tt.dest)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, "", env.folder(t, images.ID).Location)
		})
	}
}

func TestRenameFolder(t *testing.T) {
	env := newTestEnv(t)

	images := env.assert(t, "Media/Images")
	sub := env.assert(t, "Media/Images/Sub")
	f := env.upload(t, "Media/Images/Sub", "a.jpg", "a")

	renamed, err := env.services.Folders.Rename(env.ctx, env.storage, images, "Photos")
	require.NoError(t, err)
	assert.Equal(t, "Photos", renamed.Name)
	assert.Equal(t, "Media", renamed.Location)
	assert.Equal(t, "Media/Photos", env.folder(t, sub.ID).Location)
	assert.Equal(t, "Media/Photos/Sub", env.file(t, f.ID).Location)
	assert.True(t, env.exists(t, "media/files/app/Media/Photos/Sub/"+f.ID+"/a.jpg"))

	_, err = env.services.Folders.Rename(env.ctx, env.storage, renamed, "bad/name")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMoveFile(t *testing.T) {
	env := newTestEnv(t)

	f := env.upload(t, "", "report.pdf", "pdf")
	archive := env.assert(t, "Archive")

	moved, err := env.services.Mover.MoveFile(env.ctx, env.storage, f, mediaSvc.ToFolder(archive))
	require.NoError(t, err)
	assert.Equal(t, "Archive", moved.Location)
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, archive.ID, *moved.FolderID)
	assert.False(t, env.exists(t, "media/files/app/"+f.ID))

	back, err := env.services.Mover.MoveFile(env.ctx, env.storage, moved, mediaSvc.ToRoot())
	require.NoError(t, err)
	assert.Equal(t, "", back.Location)
	assert.Nil(t, back.FolderID)

	content, err := env.services.Files.Content(env.ctx, env.storage, back)
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(content))
}

func TestMoveFile_DestinationExists(t *testing.T) {
	env := newTestEnv(t)

	f := env.upload(t, "Images", "cover.jpg", "cover")
	require.NoError(t, env.backend.Put(env.ctx, env.storage.Disk, "media/files/app/Archive/"+f.ID+"/cover.jpg", []byte("other"), models.VisibilityPublic))

	_, err := env.services.Mover.MoveFile(env.ctx, env.storage, f, mediaSvc.ToPath("Archive"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDestinationExists)

	current := env.file(t, f.ID)
	assert.Equal(t, "Images", current.Location)
	assert.True(t, env.exists(t, "media/files/app/Images/"+f.ID+"/cover.jpg"))

	archive, err := env.services.Resolver.Resolve(env.ctx, env.storage, "Archive", false)
	require.NoError(t, err)
	assert.Nil(t, archive)
}

func TestMoveFolder_BackendFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)

	images := env.assert(t, "Images")
	sub := env.assert(t, "Images/Sub")
	f := env.upload(t, "Images/Sub", "cover.jpg", "cover")
	env.breakDisk(t).move = true

	_, err := env.services.Mover.MoveFolder(env.ctx, env.storage, images, mediaSvc.ToPath("Archive/Deep"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendIO)

	assert.Equal(t, "", env.folder(t, images.ID).Location)
	assert.Equal(t, "Images", env.folder(t, sub.ID).Location)
	assert.Equal(t, "Images/Sub", env.file(t, f.ID).Location)

	folders, _ := env.counts(t)
	assert.Equal(t, int64(2), folders)
	archive, err := env.services.Resolver.Resolve(env.ctx, env.storage, "Archive", false)
	require.NoError(t, err)
	assert.Nil(t, archive)

	assert.True(t, env.exists(t, "media/files/app/Images/Sub/"+f.ID+"/cover.jpg"))
	assertPathInvariant(t, env)
}

func TestMoveFile_BackendFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)

	f := env.upload(t, "Images", "cover.jpg", "cover")
	env.breakDisk(t).move = true

	_, err := env.services.Mover.MoveFile(env.ctx, env.storage, f, mediaSvc.ToPath("Archive"))
	assert.ErrorIs(t, err, domain.ErrBackendIO)

	current := env.file(t, f.ID)
	assert.Equal(t, "Images", current.Location)
	assert.NotNil(t, current.FolderID)

	folders, _ := env.counts(t)
	assert.Equal(t, int64(1), folders)
}
