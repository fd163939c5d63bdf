package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"medialib/internal/backend"
	"medialib/internal/config"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

type folderService struct {
	catalog  *mediaRepo.Catalog
	backend  backend.Backend
	resolver mediaSvc.PathResolver
	mover    mediaSvc.MoveEngine
	layout   Layout
	logger   *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	resolver mediaSvc.PathResolver,
	mover mediaSvc.MoveEngine,
	layout Layout,
	logger *slog.Logger,
) mediaSvc.FolderService {
	return &folderService{
		catalog:  catalog,
		backend:  store,
		resolver: resolver,
		mover:    mover,
		layout:   layout,
		logger:   logger,
	}
}

func (s *folderService) CreateFolder(ctx context.Context, storage *models.Storage, req *mediaSvc.CreateFolderRequest) (*models.Folder, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, utils.ToValidationError(err)
	}

	var parent *models.Folder
	var err error
	switch {
	case req.ParentID != nil && *req.ParentID != "":
		parent, err = s.catalog.Folders.GetByID(ctx, *req.ParentID, storage.ID, mediaRepo.ActiveOnly)
	case req.Location != nil && utils.Normalize(*req.Location) != nil:
		parent, err = s.resolver.Assert(ctx, storage, *req.Location)
	}
	if err != nil {
		return nil, err
	}

	private := storage.Private
	if parent != nil {
		private = parent.Private
	}
	if req.Private != nil {
		private = *req.Private
	}

	folder := newFolder(storage, parent, req.Name, private)
	folder.Description = req.Description
	if err := insertFolder(ctx, s.catalog, s.backend, s.layout, storage, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"storage_id", storage.ID,
		"folder_id", folder.ID,
		"path", folder.FullPath(),
	)
	return folder, nil
}

// validateCreateRequest validates a folder creation request
func (s *folderService) validateCreateRequest(req *mediaSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, utils.NameRules...),
		validation.Field(&req.Location, validation.Length(0, config.MaxLocationLength)),
	)
}

// FindFolder looks a folder up by id, then by path. A root folder may be
// named like a uuid.
func (s *folderService) FindFolder(ctx context.Context, storage *models.Storage, idOrPath string) (*models.Folder, error) {
	if utils.IsUUID(idOrPath) {
		folder, err := s.catalog.Folders.GetByID(ctx, idOrPath, storage.ID, mediaRepo.ActiveOnly)
		if !errors.Is(err, domain.ErrNotFound) {
			return folder, err
		}
	}

	folder, err := s.resolver.Resolve(ctx, storage, idOrPath, false)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, domain.NewNotFound("folder", idOrPath)
	}
	return folder, nil
}

func (s *folderService) Rename(ctx context.Context, storage *models.Storage, folder *models.Folder, name string) (*models.Folder, error) {
	return s.mover.RenameFolder(ctx, storage, folder, name)
}

func (s *folderService) SetPrivate(ctx context.Context, storage *models.Storage, folder *models.Folder, private bool) error {
	path, err := s.Path(storage, folder)
	if err != nil {
		return err
	}

	updated := *folder
	updated.Private = private
	updated.UpdatedAt = now()

	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Folders.Update(txCtx, &updated); err != nil {
			return err
		}
		if err := s.catalog.Folders.SetPrivateByParent(txCtx, folder.ID, private); err != nil {
			return err
		}
		if err := s.catalog.Files.SetPrivateByFolder(txCtx, folder.ID, private); err != nil {
			return err
		}

		exists, err := s.backend.Exists(txCtx, storage.Disk, path)
		if err != nil || !exists {
			return err
		}
		return s.backend.SetVisibility(txCtx, storage.Disk, path, models.VisibilityOf(private))
	})
	if err != nil {
		return fmt.Errorf("set folder %s private: %w", folder.ID, err)
	}

	folder.Private = private
	folder.UpdatedAt = updated.UpdatedAt
	s.logger.Info("folder visibility changed", "folder_id", folder.ID, "private", private)
	return nil
}

func (s *folderService) Trash(ctx context.Context, storage *models.Storage, folder *models.Folder) error {
	at := now()
	var trashed int
	err := s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Shares.DeleteFor(txCtx, models.ShareableFolder, folder.ID); err != nil {
			return err
		}
		n, err := s.trashTree(txCtx, folder.ID, at)
		trashed = n
		return err
	})
	if err != nil {
		return fmt.Errorf("trash folder %s: %w", folder.ID, err)
	}

	folder.DeletedAt = &at
	s.logger.Info("folder trashed", "storage_id", storage.ID, "folder_id", folder.ID, "nodes", trashed)
	return nil
}

// trashTree trashes the active part of a subtree, deepest nodes first.
func (s *folderService) trashTree(ctx context.Context, folderID string, at time.Time) (int, error) {
	return s.walkTree(ctx, folderID, mediaRepo.ActiveOnly, func(ctx context.Context, kind models.ShareableKind, id string) error {
		if kind == models.ShareableFile {
			return s.catalog.Files.Trash(ctx, id, at)
		}
		return s.catalog.Folders.Trash(ctx, id, at)
	})
}

func (s *folderService) Restore(ctx context.Context, storage *models.Storage, folder *models.Folder) error {
	if folder.ParentID != nil {
		parent, err := s.catalog.Folders.GetByID(ctx, *folder.ParentID, storage.ID, mediaRepo.WithTrashed)
		if err != nil {
			return err
		}
		if parent.State() == models.StateTrashed {
			return &domain.ValidationError{Message: fmt.Sprintf("cannot restore folder %q: parent %q is trashed", folder.FullPath(), parent.FullPath())}
		}
	}

	var restored int
	err := s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		n, err := s.walkTree(txCtx, folder.ID, mediaRepo.OnlyTrashed, func(ctx context.Context, kind models.ShareableKind, id string) error {
			if kind == models.ShareableFile {
				return s.catalog.Files.Restore(ctx, id)
			}
			return s.catalog.Folders.Restore(ctx, id)
		})
		restored = n
		return err
	})
	if err != nil {
		return fmt.Errorf("restore folder %s: %w", folder.ID, err)
	}

	folder.DeletedAt = nil
	s.logger.Info("folder restored", "storage_id", storage.ID, "folder_id", folder.ID, "nodes", restored)
	return nil
}

// walkTree visits the files and child folders of folderID matching scope
// depth first, then the folder itself, and calls fn on each. Children are
// always listed with WithTrashed so a subtree below a node outside scope is
// still reached.
func (s *folderService) walkTree(ctx context.Context, folderID string, scope mediaRepo.Scope, fn func(ctx context.Context, kind models.ShareableKind, id string) error) (int, error) {
	visited := 0

	children, err := s.catalog.Folders.ListChildren(ctx, folderID, mediaRepo.WithTrashed)
	if err != nil {
		return 0, err
	}
	for _, child := range children {
		n, err := s.walkTree(ctx, child.ID, scope, fn)
		if err != nil {
			return 0, err
		}
		visited += n
	}

	files, err := s.catalog.Files.ListByFolder(ctx, folderID, scope)
	if err != nil {
		return 0, err
	}
	for _, file := range files {
		if err := fn(ctx, models.ShareableFile, file.ID); err != nil {
			return 0, err
		}
		visited++
	}

	folder, err := s.catalog.Folders.GetByID(ctx, folderID, "", mediaRepo.WithTrashed)
	if err != nil {
		return 0, err
	}
	if inScope(folder.DeletedAt != nil, scope) {
		if err := fn(ctx, models.ShareableFolder, folderID); err != nil {
			return 0, err
		}
		visited++
	}
	return visited, nil
}

func inScope(trashed bool, scope mediaRepo.Scope) bool {
	switch scope {
	case mediaRepo.ActiveOnly:
		return !trashed
	case mediaRepo.OnlyTrashed:
		return trashed
	}
	return true
}

func (s *folderService) Purge(ctx context.Context, storage *models.Storage, folder *models.Folder, cascade bool) error {
	current, err := s.catalog.Folders.GetByID(ctx, folder.ID, storage.ID, mediaRepo.WithTrashed)
	if err != nil {
		return err
	}
	if current.State() != models.StateTrashed {
		return &domain.ValidationError{Message: fmt.Sprintf("folder %q must be trashed before it is purged", current.FullPath())}
	}

	if !cascade {
		folders, files, err := s.catalog.Folders.CountChildren(ctx, current.ID)
		if err != nil {
			return err
		}
		if folders > 0 || files > 0 {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %q still has %d folders and %d files", current.FullPath(), folders, files),
				ResourceType: "folder",
				ResourceID:   current.ID,
			}
		}
	}

	path, err := s.Path(storage, current)
	if err != nil {
		return err
	}

	var purged int
	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		n, err := s.walkTree(txCtx, current.ID, mediaRepo.WithTrashed, func(ctx context.Context, kind models.ShareableKind, id string) error {
			if kind == models.ShareableFile {
				if err := s.catalog.Shares.DeleteFor(ctx, models.ShareableFile, id); err != nil {
					return err
				}
				return s.catalog.Files.Delete(ctx, id)
			}
			if err := s.catalog.Shares.DeleteFor(ctx, models.ShareableFolder, id); err != nil {
				return err
			}
			return s.catalog.Folders.Delete(ctx, id)
		})
		if err != nil {
			return err
		}
		purged = n
		return s.backend.DeleteDirectory(txCtx, storage.Disk, path)
	})
	if err != nil {
		return fmt.Errorf("purge folder %s: %w", current.ID, err)
	}

	s.logger.Info("folder purged", "storage_id", storage.ID, "folder_id", current.ID, "nodes", purged, "path", path)
	return nil
}

func (s *folderService) Path(storage *models.Storage, folder *models.Folder) (string, error) {
	return s.layout.FolderPath(storage, folder)
}
