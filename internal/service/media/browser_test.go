package media

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "medialib/internal/domain/models/media"
	mediaSvc "medialib/internal/domain/services/media"
)

func TestBrowse_FilesOnly(t *testing.T) {
	env := newTestEnv(t)

	env.assert(t, "Images")
	f := env.upload(t, "", "readme.pdf", "pdf")

	result, err := env.services.Browser.Browse(env.ctx, env.storage, nil, models.BrowseFilters{FilesOnly: true}, nil)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, models.ItemFile, result.Data[0].Kind)
	assert.Equal(t, f.ID, result.Data[0].ID())
	assert.Nil(t, result.Paginate)
}

func TestBrowse_FoldersFirst(t *testing.T) {
	env := newTestEnv(t)

	env.upload(t, "", "a.pdf", "a")
	env.assert(t, "Zeta")
	env.assert(t, "Zeta/Nested")

	result, err := env.services.Browser.Browse(env.ctx, env.storage, nil, models.BrowseFilters{}, nil)
	require.NoError(t, err)
	require.Len(t, result.Data, 2)
	assert.Equal(t, models.ItemFolder, result.Data[0].Kind)
	assert.Equal(t, "Zeta", result.Data[0].Folder.Name)
	assert.Equal(t, models.ItemFile, result.Data[1].Kind)

	raw, err := json.Marshal(result.Data[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"folder"`)

	location := "Zeta"
	nested, err := env.services.Browser.Browse(env.ctx, env.storage, &location, models.BrowseFilters{}, nil)
	require.NoError(t, err)
	require.Len(t, nested.Data, 1)
	assert.Equal(t, "Nested", nested.Data[0].Folder.Name)
}

func TestBrowse_Filters(t *testing.T) {
	env := newTestEnv(t)

	env.assert(t, "Docs")
	photo := env.upload(t, "", "photo.jpg", "jpeg")
	_, err := env.services.Files.CreateFile(env.ctx, env.storage, &mediaSvc.CreateFileRequest{
		Filename: "invoice.pdf",
		Mimetype: "application/pdf",
		Content:  []byte("%PDF"),
	})
	require.NoError(t, err)

	images, err := env.services.Browser.Browse(env.ctx, env.storage, nil, models.BrowseFilters{Type: "image"}, nil)
	require.NoError(t, err)
	require.Len(t, images.Data, 1)
	assert.Equal(t, photo.ID, images.Data[0].ID())

	pdfs, err := env.services.Browser.Browse(env.ctx, env.storage, nil, models.BrowseFilters{Mime: "pdf"}, nil)
	require.NoError(t, err)
	require.Len(t, pdfs.Data, 1)
	assert.Equal(t, "invoice", pdfs.Data[0].File.Name)

	require.NoError(t, env.services.Files.Link(env.ctx, photo, post{id: "1"}))
	owned, err := env.services.Browser.Browse(env.ctx, env.storage, nil, models.BrowseFilters{ModelFiles: true}, nil)
	require.NoError(t, err)
	require.Len(t, owned.Data, 1)
	assert.Equal(t, photo.ID, owned.Data[0].ID())
}

func TestBrowse_Pagination(t *testing.T) {
	env := newTestEnv(t)

	for i := 1; i <= 3; i++ {
		env.assert(t, fmt.Sprintf("f%d", i))
	}
	for _, name := range []string{"a", "b", "c", "d"} {
		env.upload(t, "", name+".jpg", name)
	}

	tests := []struct {
		page  int
		names []string
		prev  *int
		next  *int
	}{
		{1, []string{"f1", "f2", "f3"}, nil, intPtr(2)},
		{2, []string{"a", "b", "c"}, intPtr(1), intPtr(3)},
		{3, []string{"d"}, intPtr(2), nil},
		{4, []string{}, intPtr(3), nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			result, err := env.services.Browser.Browse(env.ctx, env.storage, nil, models.BrowseFilters{},
				&models.Pagination{Page: tt.page, PerPage: 3})
			require.NoError(t, err)

			names := []string{}
			for _, item := range result.Data {
				if item.Folder != nil {
					names = append(names, item.Folder.Name)
				} else {
					names = append(names, item.File.Name)
				}
			}
			assert.Equal(t, tt.names, names)

			require.NotNil(t, result.Paginate)
			assert.Equal(t, 7, result.Paginate.Total)
			assert.Equal(t, 3, result.Paginate.Pages)
			assert.Equal(t, tt.page, result.Paginate.CurrentPage)
			assert.Equal(t, 3, result.Paginate.PerPage)
			assert.Equal(t, tt.prev, result.Paginate.Prev)
			assert.Equal(t, tt.next, result.Paginate.Next)
		})
	}
}

func TestBrowse_PaginationDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "", "a.jpg", "a")

	result, err := env.services.Browser.Browse(env.ctx, env.storage, nil, models.BrowseFilters{}, &models.Pagination{})
	require.NoError(t, err)
	require.NotNil(t, result.Paginate)
	assert.Equal(t, models.DefaultBrowsePage, result.Paginate.CurrentPage)
	assert.Equal(t, models.DefaultBrowsePerPage, result.Paginate.PerPage)
	assert.Nil(t, result.Paginate.Prev)
	assert.Nil(t, result.Paginate.Next)
}

func intPtr(i int) *int { return &i }
