package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"medialib/internal/backend"
	"medialib/internal/config"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

type fileService struct {
	catalog  *mediaRepo.Catalog
	backend  backend.Backend
	resolver mediaSvc.PathResolver
	layout   Layout
	cfg      *config.Config
	logger   *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	resolver mediaSvc.PathResolver,
	layout Layout,
	cfg *config.Config,
	logger *slog.Logger,
) mediaSvc.FileService {
	return &fileService{
		catalog:  catalog,
		backend:  store,
		resolver: resolver,
		layout:   layout,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *fileService) CreateFile(ctx context.Context, storage *models.Storage, req *mediaSvc.CreateFileRequest) (*models.File, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, utils.ToValidationError(err)
	}

	size := int64(len(req.Content))
	if err := s.checkCapacity(ctx, storage, size); err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = strings.TrimSuffix(path.Base(strings.ReplaceAll(req.Filename, "\\", "/")), path.Ext(req.Filename))
	}
	if err := utils.ValidateName(name); err != nil {
		return nil, err
	}

	folder, err := s.targetFolder(ctx, storage, req.FolderID, req.Location)
	if err != nil {
		return nil, err
	}

	private := storage.Private
	if folder != nil {
		private = folder.Private
	}
	if req.Private != nil {
		private = *req.Private
	}

	mimeType := detectMimetype(req.Mimetype, req.Content)
	filename := utils.CleanFilename(req.Filename)
	extension := utils.Extension(filename)
	id := uuid.NewString()
	ts := now()

	file := &models.File{
		ID:           id,
		StorageID:    storage.ID,
		Fqfn:         utils.Fqfn(id, filename),
		Name:         name,
		Description:  req.Description,
		Private:      private,
		Filename:     filename,
		Mime:         config.MimeSubtype(mimeType),
		Mimetype:     mimeType,
		Type:         s.cfg.FileType(mimeType, extension),
		Extension:    extension,
		Size:         size,
		OriginalSize: size,
		TotalSize:    size,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if folder != nil {
		file.FolderID = &folder.ID
		file.Location = folder.FullPath()
	}
	if req.Owner != nil {
		ref := req.Owner.MediaOwner()
		file.OwnerKind, file.OwnerID = &ref.Kind, &ref.ID
	}

	dir, err := s.layout.FileDir(storage, file)
	if err != nil {
		return nil, err
	}
	uri, err := s.layout.FileURI(storage, file)
	if err != nil {
		return nil, err
	}

	visibility := models.VisibilityOf(private)
	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Files.Create(txCtx, file); err != nil {
			return err
		}
		if err := s.backend.MakeDirectory(txCtx, storage.Disk, dir, visibility); err != nil {
			return err
		}
		return s.backend.Put(txCtx, storage.Disk, uri, req.Content, visibility)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file created",
		"storage_id", storage.ID,
		"file_id", file.ID,
		"location", file.Location,
		"filename", file.Filename,
		"size", file.Size,
	)
	return file, nil
}

func (s *fileService) checkCapacity(ctx context.Context, storage *models.Storage, size int64) error {
	if storage.Capacity == nil || *storage.Capacity <= 0 {
		return nil
	}
	used, err := s.catalog.Storages.UsedBytes(ctx, storage.ID)
	if err != nil {
		return err
	}
	if used+size > *storage.Capacity {
		return &domain.ValidationError{Message: fmt.Sprintf("storage %q has %d of %d bytes left", storage.Name, *storage.Capacity-used, *storage.Capacity)}
	}
	return nil
}

// validateCreateRequest validates a file upload request
func (s *fileService) validateCreateRequest(req *mediaSvc.CreateFileRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Filename,
			validation.Required.Error("filename cannot be empty"),
			utils.NotBlank.Error("filename cannot be empty"),
			validation.Length(1, config.MaxFilenameLength),
			validation.By(s.allowedType),
		),
		validation.Field(&req.Name, validation.When(req.Name != "", utils.NameRules...)),
		validation.Field(&req.Content, maxContentSize(s.cfg.Uploads.MaxSize, "file")),
	)
}

func (s *fileService) allowedType(value interface{}) error {
	filename, _ := value.(string)
	if extension := utils.Extension(filename); !s.cfg.Uploads.AllowsExtension(extension) {
		return fmt.Errorf("files of type %q are not allowed", extension)
	}
	return nil
}

// targetFolder finds the folder an upload lands in; nil means the root.
func (s *fileService) targetFolder(ctx context.Context, storage *models.Storage, folderID, location *string) (*models.Folder, error) {
	if folderID != nil && *folderID != "" {
		return s.catalog.Folders.GetByID(ctx, *folderID, storage.ID, mediaRepo.ActiveOnly)
	}
	if location != nil && utils.Normalize(*location) != nil {
		return s.resolver.Assert(ctx, storage, *location)
	}
	return nil, nil
}

// detectMimetype keeps a declared mimetype and sniffs the content otherwise.
func detectMimetype(declared string, content []byte) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		declared = mimetype.Detect(content).String()
	}
	base, _, _ := strings.Cut(declared, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func (s *fileService) FindFile(ctx context.Context, idOrFqfn string) (*models.File, error) {
	if utils.IsUUID(idOrFqfn) {
		file, err := s.catalog.Files.GetByID(ctx, idOrFqfn, "", mediaRepo.ActiveOnly)
		if !errors.Is(err, domain.ErrNotFound) {
			return file, err
		}
	}
	return s.catalog.Files.GetByFqfn(ctx, idOrFqfn, mediaRepo.ActiveOnly)
}

func (s *fileService) Content(ctx context.Context, storage *models.Storage, file *models.File) ([]byte, error) {
	uri, err := s.layout.FileURI(storage, file)
	if err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, storage.Disk, uri)
}

func (s *fileService) Rename(ctx context.Context, file *models.File, name string) (*models.File, error) {
	if err := utils.ValidateName(name); err != nil {
		return nil, err
	}
	if name == file.Name {
		return file, nil
	}

	renamed := *file
	renamed.Name = name
	renamed.UpdatedAt = now()
	if err := s.catalog.Files.Update(ctx, &renamed); err != nil {
		return nil, err
	}

	s.logger.Info("file renamed", "file_id", file.ID, "from", file.Name, "to", name)
	return &renamed, nil
}

func (s *fileService) SetPrivate(ctx context.Context, storage *models.Storage, file *models.File, private bool) error {
	dir, err := s.layout.FileDir(storage, file)
	if err != nil {
		return err
	}
	uri, err := s.layout.FileURI(storage, file)
	if err != nil {
		return err
	}

	updated := *file
	updated.Private = private
	updated.UpdatedAt = now()

	visibility := models.VisibilityOf(private)
	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Files.Update(txCtx, &updated); err != nil {
			return err
		}
		for _, p := range []string{dir, uri} {
			exists, err := s.backend.Exists(txCtx, storage.Disk, p)
			if err != nil {
				return err
			}
			if !exists {
				continue
			}
			if err := s.backend.SetVisibility(txCtx, storage.Disk, p, visibility); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set file %s private: %w", file.ID, err)
	}

	file.Private = private
	file.UpdatedAt = updated.UpdatedAt
	s.logger.Info("file visibility changed", "file_id", file.ID, "private", private)
	return nil
}

func (s *fileService) URL(ctx context.Context, storage *models.Storage, file *models.File, ttl time.Duration) (string, error) {
	uri, err := s.layout.FileURI(storage, file)
	if err != nil {
		return "", err
	}
	if !file.Private {
		return s.backend.URL(ctx, storage.Disk, uri)
	}
	if ttl <= 0 {
		ttl = s.cfg.Uploads.TemporaryURLTTL
	}
	return s.backend.TemporaryURL(ctx, storage.Disk, uri, ttl)
}

func (s *fileService) Link(ctx context.Context, file *models.File, owner models.Owner) error {
	ref := owner.MediaOwner()
	if err := s.catalog.Fileables.Link(ctx, file.ID, ref); err != nil {
		return err
	}
	s.logger.Debug("file linked", "file_id", file.ID, "owner_kind", ref.Kind, "owner_id", ref.ID)
	return nil
}

func (s *fileService) Unlink(ctx context.Context, file *models.File, owner models.Owner) error {
	ref := owner.MediaOwner()
	if err := s.catalog.Fileables.Unlink(ctx, file.ID, ref); err != nil {
		return err
	}
	s.logger.Debug("file unlinked", "file_id", file.ID, "owner_kind", ref.Kind, "owner_id", ref.ID)
	return nil
}

func (s *fileService) FilesOf(ctx context.Context, owner models.Owner) ([]models.File, error) {
	return s.catalog.Fileables.ListFiles(ctx, owner.MediaOwner())
}

func (s *fileService) SetOwner(ctx context.Context, file *models.File, owner models.Owner) error {
	updated := *file
	updated.OwnerKind, updated.OwnerID = nil, nil
	if owner != nil {
		ref := owner.MediaOwner()
		updated.OwnerKind, updated.OwnerID = &ref.Kind, &ref.ID
	}
	updated.UpdatedAt = now()

	if err := s.catalog.Files.Update(ctx, &updated); err != nil {
		return err
	}
	*file = updated
	return nil
}

func (s *fileService) Trash(ctx context.Context, file *models.File) error {
	if file.State() == models.StateTrashed {
		return nil
	}
	at := now()
	err := s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Shares.DeleteFor(txCtx, models.ShareableFile, file.ID); err != nil {
			return err
		}
		return s.catalog.Files.Trash(txCtx, file.ID, at)
	})
	if err != nil {
		return fmt.Errorf("trash file %s: %w", file.ID, err)
	}

	file.DeletedAt = &at
	s.logger.Info("file trashed", "file_id", file.ID)
	return nil
}

func (s *fileService) Restore(ctx context.Context, file *models.File) error {
	if file.State() == models.StateActive {
		return nil
	}
	if file.FolderID != nil {
		folder, err := s.catalog.Folders.GetByID(ctx, *file.FolderID, file.StorageID, mediaRepo.WithTrashed)
		if err != nil {
			return err
		}
		if folder.State() == models.StateTrashed {
			return &domain.ValidationError{Message: fmt.Sprintf("cannot restore file %q: folder %q is trashed", file.Name, folder.FullPath())}
		}
	}

	if err := s.catalog.Files.Restore(ctx, file.ID); err != nil {
		return err
	}
	file.DeletedAt = nil
	s.logger.Info("file restored", "file_id", file.ID)
	return nil
}

func (s *fileService) Purge(ctx context.Context, storage *models.Storage, file *models.File) error {
	current, err := s.catalog.Files.GetByID(ctx, file.ID, storage.ID, mediaRepo.WithTrashed)
	if err != nil {
		return err
	}
	if current.State() != models.StateTrashed {
		return &domain.ValidationError{Message: fmt.Sprintf("file %q must be trashed before it is purged", current.Name)}
	}

	dir, err := s.Path(storage, current)
	if err != nil {
		return err
	}
	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Shares.DeleteFor(txCtx, models.ShareableFile, current.ID); err != nil {
			return err
		}
		if err := s.catalog.Files.Delete(txCtx, current.ID); err != nil {
			return err
		}
		return s.backend.DeleteDirectory(txCtx, storage.Disk, dir)
	})
	if err != nil {
		return fmt.Errorf("purge file %s: %w", current.ID, err)
	}

	s.logger.Info("file purged", "file_id", current.ID, "path", dir)
	return nil
}

func (s *fileService) Path(storage *models.Storage, file *models.File) (string, error) {
	return s.layout.FileDir(storage, file)
}
