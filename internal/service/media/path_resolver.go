package media

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"medialib/internal/backend"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

type pathResolver struct {
	catalog *mediaRepo.Catalog
	backend backend.Backend
	layout  Layout
	logger  *slog.Logger
}

// NewPathResolver creates a new path resolver
func NewPathResolver(
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	layout Layout,
	logger *slog.Logger,
) mediaSvc.PathResolver {
	return &pathResolver{
		catalog: catalog,
		backend: store,
		layout:  layout,
		logger:  logger,
	}
}

func (r *pathResolver) Resolve(ctx context.Context, storage *models.Storage, path string, create bool) (*models.Folder, error) {
	clean, err := utils.ValidatePath(path)
	if err != nil {
		return nil, err
	}
	if clean == "" {
		return nil, nil
	}

	parent, name := utils.Split(clean)
	folder, err := r.lookup(ctx, storage, utils.Location(parent), name)
	if err != nil || folder != nil {
		return folder, err
	}
	if !create {
		return nil, nil
	}
	return r.assert(ctx, storage, clean)
}

func (r *pathResolver) Assert(ctx context.Context, storage *models.Storage, path string) (*models.Folder, error) {
	clean, err := utils.ValidatePath(path)
	if err != nil {
		return nil, err
	}
	if clean == "" {
		return nil, &domain.ValidationError{Message: "cannot assert the root folder"}
	}
	return r.assert(ctx, storage, clean)
}

// assert walks the segments of a clean path left to right, getting or
// creating each one. A new root level folder takes the storage privacy,
// every deeper one the privacy of its parent.
func (r *pathResolver) assert(ctx context.Context, storage *models.Storage, path string) (*models.Folder, error) {
	parentLocation, name := utils.Split(path)
	folder, err := r.lookup(ctx, storage, utils.Location(parentLocation), name)
	if err != nil || folder != nil {
		return folder, err
	}

	var parent *models.Folder
	for _, segment := range strings.Split(path, utils.Separator) {
		parent, err = r.getOrCreate(ctx, storage, parent, segment)
		if err != nil {
			return nil, err
		}
	}
	return parent, nil
}

func (r *pathResolver) getOrCreate(ctx context.Context, storage *models.Storage, parent *models.Folder, name string) (*models.Folder, error) {
	location := ""
	private := storage.Private
	if parent != nil {
		location = parent.FullPath()
		private = parent.Private
	}

	existing, err := r.lookup(ctx, storage, location, name)
	if err != nil || existing != nil {
		return existing, err
	}

	folder := newFolder(storage, parent, name, private)
	err = insertFolder(ctx, r.catalog, r.backend, r.layout, storage, folder)
	if err == nil {
		r.logger.Info("folder created", "storage_id", storage.ID, "folder_id", folder.ID, "path", folder.FullPath())
		return folder, nil
	}
	if !errors.Is(err, domain.ErrDuplicateNode) {
		return nil, err
	}

	// A concurrent assert won the race: its row is the answer. When the
	// key is held by a trashed folder the lookup misses and the
	// duplicate error stands.
	existing, lookupErr := r.lookup(ctx, storage, location, name)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing == nil {
		return nil, err
	}
	r.logger.Debug("folder created concurrently", "storage_id", storage.ID, "folder_id", existing.ID)
	return existing, nil
}

// lookup returns the active folder at (location, name), or nil.
func (r *pathResolver) lookup(ctx context.Context, storage *models.Storage, location, name string) (*models.Folder, error) {
	folder, err := r.catalog.Folders.GetByPath(ctx, storage.ID, location, name, mediaRepo.ActiveOnly)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return folder, err
}

func newFolder(storage *models.Storage, parent *models.Folder, name string, private bool) *models.Folder {
	ts := now()
	folder := &models.Folder{
		ID:        uuid.NewString(),
		StorageID: storage.ID,
		Name:      name,
		Private:   private,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if parent != nil {
		folder.ParentID = &parent.ID
		folder.Location = parent.FullPath()
	}
	return folder
}

// insertFolder creates the folder row and its backend directory in one
// transaction: a backend failure rolls the row back.
func insertFolder(
	ctx context.Context,
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	layout Layout,
	storage *models.Storage,
	folder *models.Folder,
) error {
	path, err := layout.FolderPath(storage, folder)
	if err != nil {
		return err
	}
	return catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := catalog.Folders.Create(txCtx, folder); err != nil {
			return err
		}
		return store.MakeDirectory(txCtx, storage.Disk, path, models.VisibilityOf(folder.Private))
	})
}
