// Package media implements the media library services: path resolution,
// folder and file management, moves, browsing and garbage collection.
//
// Every operation takes the storage it works on explicitly. Catalog writes run
// through the catalog's TransactionManager; backend calls that must succeed
// together with a catalog write run inside the same transaction, last.
package media

import (
	"context"
	"log/slog"
	"time"

	"medialib/internal/backend"
	"medialib/internal/config"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

// Services bundles the media services sharing one catalog and backend.
type Services struct {
	Storages    mediaSvc.StorageService
	Resolver    mediaSvc.PathResolver
	Folders     mediaSvc.FolderService
	Files       mediaSvc.FileService
	Mover       mediaSvc.MoveEngine
	Browser     mediaSvc.BrowseEngine
	Reaper      mediaSvc.Reaper
	Shares      mediaSvc.ShareService
	Attachments mediaSvc.AttachmentService
}

// NewServices wires every media service.
func NewServices(catalog *mediaRepo.Catalog, store backend.Backend, cfg *config.Config, logger *slog.Logger) *Services {
	paths := newLayout(cfg)
	resolver := NewPathResolver(catalog, store, paths, logger)
	mover := NewMoveEngine(catalog, store, resolver, paths, logger)

	return &Services{
		Storages:    NewStorageService(catalog, store, paths, cfg, logger),
		Resolver:    resolver,
		Folders:     NewFolderService(catalog, store, resolver, mover, paths, logger),
		Files:       NewFileService(catalog, store, resolver, paths, cfg, logger),
		Mover:       mover,
		Browser:     NewBrowseEngine(catalog),
		Reaper:      NewReaper(catalog, store, paths, logger),
		Shares:      NewShareService(catalog, cfg, logger),
		Attachments: NewAttachmentService(catalog, store, paths, cfg, logger),
	}
}

// Layout maps catalog nodes to backend paths:
//
//	folder/uploads/storage.location/folder.location/folder.name
//	folder/uploads/storage.location/file.location/file.id/file.filename
//	folder/attachments/attachment.filename
type Layout struct {
	folder      string
	uploads     string
	attachments string
}

func newLayout(cfg *config.Config) Layout {
	return Layout{
		folder:      cfg.Folder,
		uploads:     cfg.Uploads.Location,
		attachments: cfg.Attachments.Location,
	}
}

// NewLayout exposes the path layout of cfg.
func NewLayout(cfg *config.Config) Layout { return newLayout(cfg) }

// StoragePath is the backend path of locations inside storage.
func (l Layout) StoragePath(storage *models.Storage, locations ...string) (string, error) {
	segments := append([]string{l.folder, l.uploads, storage.Location}, locations...)
	return utils.Join(segments...)
}

// FolderPath is the backend directory of a folder.
func (l Layout) FolderPath(storage *models.Storage, folder *models.Folder) (string, error) {
	return l.StoragePath(storage, folder.FullPath())
}

// FileDir is the id keyed directory holding a file and its variants.
func (l Layout) FileDir(storage *models.Storage, file *models.File) (string, error) {
	return l.StoragePath(storage, file.Location, file.ID)
}

// FileURI is the backend path of the canonical file content.
func (l Layout) FileURI(storage *models.Storage, file *models.File) (string, error) {
	return l.StoragePath(storage, file.Location, file.ID, file.Filename)
}

// AttachmentURI is the backend path of an attachment.
func (l Layout) AttachmentURI(attachment *models.Attachment) (string, error) {
	return utils.Join(l.folder, l.attachments, attachment.Filename)
}

func now() time.Time {
	return time.Now().UTC()
}

// storageCache memoizes storages looked up by id during one sweep or cascade.
type storageCache struct {
	repo     mediaRepo.StorageRepository
	storages map[string]*models.Storage
}

func newStorageCache(repo mediaRepo.StorageRepository) *storageCache {
	return &storageCache{repo: repo, storages: make(map[string]*models.Storage)}
}

func (c *storageCache) get(ctx context.Context, id string) (*models.Storage, error) {
	if storage, ok := c.storages[id]; ok {
		return storage, nil
	}
	storage, err := c.repo.GetByID(ctx, id, mediaRepo.WithTrashed)
	if err != nil {
		return nil, err
	}
	c.storages[id] = storage
	return storage, nil
}
