package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"medialib/internal/backend"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

type moveEngine struct {
	catalog  *mediaRepo.Catalog
	backend  backend.Backend
	resolver mediaSvc.PathResolver
	layout   Layout
	logger   *slog.Logger

	// one mutex per storage id
	locks sync.Map
}

// NewMoveEngine creates a new move engine
func NewMoveEngine(
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	resolver mediaSvc.PathResolver,
	layout Layout,
	logger *slog.Logger,
) mediaSvc.MoveEngine {
	return &moveEngine{
		catalog:  catalog,
		backend:  store,
		resolver: resolver,
		layout:   layout,
		logger:   logger,
	}
}

// lock serializes moves inside one storage for this process.
func (m *moveEngine) lock(storageID string) func() {
	mu, _ := m.locks.LoadOrStore(storageID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// target is a resolved destination. folder is nil for the root, and for a
// path that does not exist yet until materialize asserts it.
type target struct {
	folder   *models.Folder
	location string
}

func (m *moveEngine) resolveTarget(ctx context.Context, storage *models.Storage, dest mediaSvc.Destination) (*target, error) {
	switch {
	case dest.Folder != nil:
		if dest.Folder.StorageID != storage.ID {
			return nil, &domain.ValidationError{Message: "destination folder belongs to another storage"}
		}
		folder, err := m.catalog.Folders.GetByID(ctx, dest.Folder.ID, storage.ID, mediaRepo.ActiveOnly)
		if err != nil {
			return nil, err
		}
		return &target{folder: folder, location: folder.FullPath()}, nil

	case dest.FolderID != "":
		folder, err := m.catalog.Folders.GetByID(ctx, dest.FolderID, storage.ID, mediaRepo.ActiveOnly)
		if err != nil {
			return nil, err
		}
		return &target{folder: folder, location: folder.FullPath()}, nil

	case utils.Normalize(dest.Path) != nil:
		clean, err := utils.ValidatePath(dest.Path)
		if err != nil {
			return nil, err
		}
		folder, err := m.resolver.Resolve(ctx, storage, clean, false)
		if err != nil {
			return nil, err
		}
		return &target{folder: folder, location: clean}, nil
	}

	return &target{}, nil
}

// materialize asserts a destination path that has no folder yet.
func (m *moveEngine) materialize(ctx context.Context, storage *models.Storage, t *target) error {
	if t.folder != nil || t.location == "" {
		return nil
	}
	folder, err := m.resolver.Assert(ctx, storage, t.location)
	if err != nil {
		return err
	}
	t.folder = folder
	return nil
}

func (t *target) parentID() *string {
	if t.folder == nil {
		return nil
	}
	return &t.folder.ID
}

func (m *moveEngine) MoveFile(ctx context.Context, storage *models.Storage, file *models.File, dest mediaSvc.Destination) (*models.File, error) {
	if file.StorageID != storage.ID {
		return nil, &domain.ValidationError{Message: "file belongs to another storage"}
	}

	unlock := m.lock(storage.ID)
	defer unlock()

	t, err := m.resolveTarget(ctx, storage, dest)
	if err != nil {
		return nil, err
	}
	if t.location == file.Location {
		return file, nil
	}

	from, err := m.layout.FileDir(storage, file)
	if err != nil {
		return nil, err
	}
	to, err := m.layout.StoragePath(storage, t.location, file.ID)
	if err != nil {
		return nil, err
	}

	exists, err := m.backend.Exists(ctx, storage.Disk, to)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.DestinationExistsError{Disk: storage.Disk, Path: to}
	}

	moved := *file
	err = m.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := m.materialize(txCtx, storage, t); err != nil {
			return err
		}
		moved.Location = t.location
		moved.FolderID = t.parentID()
		moved.UpdatedAt = now()
		if err := m.catalog.Files.Update(txCtx, &moved); err != nil {
			return err
		}
		return m.backend.Move(txCtx, storage.Disk, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("move file %s: %w", file.ID, err)
	}

	m.logger.Info("file moved",
		"file_id", file.ID,
		"from", file.Location,
		"to", moved.Location,
	)
	return &moved, nil
}

func (m *moveEngine) MoveFolder(ctx context.Context, storage *models.Storage, folder *models.Folder, dest mediaSvc.Destination) (*models.Folder, error) {
	if folder.StorageID != storage.ID {
		return nil, &domain.ValidationError{Message: "folder belongs to another storage"}
	}

	unlock := m.lock(storage.ID)
	defer unlock()

	t, err := m.resolveTarget(ctx, storage, dest)
	if err != nil {
		return nil, err
	}
	return m.relocate(ctx, storage, folder, t, folder.Name)
}

func (m *moveEngine) RenameFolder(ctx context.Context, storage *models.Storage, folder *models.Folder, name string) (*models.Folder, error) {
	if folder.StorageID != storage.ID {
		return nil, &domain.ValidationError{Message: "folder belongs to another storage"}
	}
	if err := utils.ValidateName(name); err != nil {
		return nil, err
	}

	unlock := m.lock(storage.ID)
	defer unlock()

	t := &target{location: folder.Location}
	if folder.ParentID != nil {
		parent, err := m.catalog.Folders.GetByID(ctx, *folder.ParentID, storage.ID, mediaRepo.WithTrashed)
		if err != nil {
			return nil, err
		}
		t.folder = parent
	}
	return m.relocate(ctx, storage, folder, t, name)
}

// relocate places folder under t with the given name, moves its backend
// directory and cascades the new path to the whole subtree.
func (m *moveEngine) relocate(ctx context.Context, storage *models.Storage, folder *models.Folder, t *target, name string) (*models.Folder, error) {
	oldPath := folder.FullPath()
	if t.location == oldPath || strings.HasPrefix(t.location, oldPath+utils.Separator) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("cannot move folder %q into itself", oldPath)}
	}
	if t.location == folder.Location && name == folder.Name {
		return folder, nil
	}

	from, err := m.layout.FolderPath(storage, folder)
	if err != nil {
		return nil, err
	}
	to, err := m.layout.StoragePath(storage, t.location, name)
	if err != nil {
		return nil, err
	}

	exists, err := m.backend.Exists(ctx, storage.Disk, to)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.DestinationExistsError{Disk: storage.Disk, Path: to}
	}

	moved := *folder
	var touched int64
	err = m.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := m.materialize(txCtx, storage, t); err != nil {
			return err
		}
		moved.Name = name
		moved.Location = t.location
		moved.ParentID = t.parentID()
		moved.UpdatedAt = now()
		if err := m.catalog.Folders.Update(txCtx, &moved); err != nil {
			return err
		}

		n, err := m.cascadeLocation(txCtx, &moved)
		if err != nil {
			return err
		}
		touched = n
		return m.backend.Move(txCtx, storage.Disk, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("move folder %s: %w", folder.ID, err)
	}

	m.logger.Info("folder moved",
		"folder_id", folder.ID,
		"from", oldPath,
		"to", moved.FullPath(),
		"descendants", touched,
	)
	return &moved, nil
}

// cascadeLocation rewrites the location of every descendant of folder, depth
// first, trashed rows included. Each descendant is visited exactly once; the
// result is the number of rows rewritten.
func (m *moveEngine) cascadeLocation(ctx context.Context, folder *models.Folder) (int64, error) {
	path := folder.FullPath()

	touched, err := m.catalog.Files.UpdateLocationByFolder(ctx, folder.ID, path)
	if err != nil {
		return 0, err
	}

	children, err := m.catalog.Folders.ListChildren(ctx, folder.ID, mediaRepo.WithTrashed)
	if err != nil {
		return 0, err
	}

	for i := range children {
		child := &children[i]
		child.Location = path
		child.UpdatedAt = now()
		if err := m.catalog.Folders.Update(ctx, child); err != nil {
			return 0, err
		}
		m.logger.Debug("cascaded folder location", "folder_id", child.ID, "location", path)

		sub, err := m.cascadeLocation(ctx, child)
		if err != nil {
			return 0, err
		}
		touched += sub + 1
	}

	return touched, nil
}
