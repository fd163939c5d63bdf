package fsdisk

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "medialib/internal/domain/models/media"
)

func TestDisk_Visibility(t *testing.T) {
	ctx := context.Background()
	disk := NewMemory()

	require.NoError(t, disk.Put(ctx, "a/b.txt", []byte("x"), models.VisibilityPrivate))
	vis, err := disk.Visibility("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, vis)

	require.NoError(t, disk.SetVisibility(ctx, "a/b.txt", models.VisibilityPublic))
	vis, err = disk.Visibility("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, vis)
}

func TestDisk_DeleteDirectory(t *testing.T) {
	ctx := context.Background()
	disk := NewMemory()

	require.NoError(t, disk.MakeDirectory(ctx, "media/files/Images", models.VisibilityPublic))
	require.NoError(t, disk.Put(ctx, "media/files/Images/id/x.png", []byte("png"), models.VisibilityPublic))

	require.NoError(t, disk.DeleteDirectory(ctx, "media/files/Images"))
	exists, err := disk.Exists(ctx, "media/files/Images/id/x.png")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, disk.DeleteDirectory(ctx, "/"))
	// Missing files are ignored
	assert.NoError(t, disk.Delete(ctx, "nothing/here"))
}

func TestDisk_TemporaryURL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	disk := NewMemory(WithURL("https://cdn.example.com/storage/"), WithSigningKey("k"), WithClock(clock))

	raw, err := disk.TemporaryURL(context.Background(), "media/files/id/doc.pdf", 30*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/storage/media/files/id/doc.pdf", u.Path)

	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute).Unix(), expires)

	assert.True(t, disk.Verify("media/files/id/doc.pdf", expires, u.Query().Get("signature")))
	assert.False(t, disk.Verify("media/files/id/other.pdf", expires, u.Query().Get("signature")))

	now = now.Add(time.Hour)
	assert.False(t, disk.Verify("media/files/id/doc.pdf", expires, u.Query().Get("signature")))
}

func TestDisk_TemporaryURLWithoutKey(t *testing.T) {
	_, err := NewMemory().TemporaryURL(context.Background(), "a", time.Minute)
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestNewLocal(t *testing.T) {
	ctx := context.Background()
	disk, err := NewLocal(t.TempDir(), WithURL("/storage"))
	require.NoError(t, err)

	require.NoError(t, disk.Put(ctx, "dir/file.txt", []byte("hello"), models.VisibilityPublic))
	require.NoError(t, disk.Move(ctx, "dir", "moved/dir"))

	data, err := disk.Get(ctx, "moved/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	link, err := disk.URL("moved/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "/storage/moved/dir/file.txt", link)
}
