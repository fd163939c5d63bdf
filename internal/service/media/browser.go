package media

import (
	"context"

	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

type browseEngine struct {
	catalog *mediaRepo.Catalog
}

// NewBrowseEngine creates a new browse engine
func NewBrowseEngine(catalog *mediaRepo.Catalog) mediaSvc.BrowseEngine {
	return &browseEngine{catalog: catalog}
}

// Browse pages over the concatenation folders ++ files, so a page may start
// in the folders and end in the files.
func (b *browseEngine) Browse(ctx context.Context, storage *models.Storage, location *string, filters models.BrowseFilters, paginate *models.Pagination) (*models.BrowseResult, error) {
	clean := ""
	if location != nil {
		var err error
		clean, err = utils.ValidatePath(*location)
		if err != nil {
			return nil, err
		}
	}

	folderQuery := mediaRepo.FolderBrowseQuery{
		StorageID: storage.ID,
		Location:  clean,
		Private:   filters.Private,
	}
	fileQuery := mediaRepo.FileBrowseQuery{
		StorageID:  storage.ID,
		Location:   clean,
		Type:       filters.Type,
		Mime:       filters.Mime,
		Private:    filters.Private,
		ModelFiles: filters.ModelFiles,
	}
	withFolders := filters.IncludesFolders()

	if paginate == nil {
		var folders []models.Folder
		if withFolders {
			var err error
			folders, err = b.catalog.Folders.Browse(ctx, folderQuery, 0, 0)
			if err != nil {
				return nil, err
			}
		}
		files, err := b.catalog.Files.Browse(ctx, fileQuery, 0, 0)
		if err != nil {
			return nil, err
		}
		return &models.BrowseResult{Data: items(folders, files)}, nil
	}

	page := *paginate
	page.ApplyDefaults()

	var folderTotal int64
	if withFolders {
		var err error
		folderTotal, err = b.catalog.Folders.CountBrowse(ctx, folderQuery)
		if err != nil {
			return nil, err
		}
	}
	fileTotal, err := b.catalog.Files.CountBrowse(ctx, fileQuery)
	if err != nil {
		return nil, err
	}

	offset := page.Offset()
	remaining := page.PerPage

	var folders []models.Folder
	if int64(offset) < folderTotal {
		folders, err = b.catalog.Folders.Browse(ctx, folderQuery, remaining, offset)
		if err != nil {
			return nil, err
		}
		remaining -= len(folders)
	}

	var files []models.File
	if remaining > 0 {
		fileOffset := offset - int(folderTotal)
		if fileOffset < 0 {
			fileOffset = 0
		}
		files, err = b.catalog.Files.Browse(ctx, fileQuery, remaining, fileOffset)
		if err != nil {
			return nil, err
		}
	}

	return &models.BrowseResult{
		Data:     items(folders, files),
		Paginate: pageInfo(int(folderTotal+fileTotal), page),
	}, nil
}

func items(folders []models.Folder, files []models.File) []models.Item {
	data := make([]models.Item, 0, len(folders)+len(files))
	for i := range folders {
		data = append(data, models.Item{Kind: models.ItemFolder, Folder: &folders[i]})
	}
	for i := range files {
		data = append(data, models.Item{Kind: models.ItemFile, File: &files[i]})
	}
	return data
}

func pageInfo(total int, page models.Pagination) *models.PageInfo {
	pages := (total + page.PerPage - 1) / page.PerPage
	info := &models.PageInfo{
		Total:       total,
		Pages:       pages,
		CurrentPage: page.Page,
		PerPage:     page.PerPage,
	}
	if page.Page > 1 {
		prev := page.Page - 1
		if prev > pages {
			prev = pages
		}
		if prev >= 1 {
			info.Prev = &prev
		}
	}
	if page.Page < pages {
		next := page.Page + 1
		info.Next = &next
	}
	return info
}
