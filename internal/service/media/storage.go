package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

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

type storageService struct {
	catalog *mediaRepo.Catalog
	backend backend.Backend
	layout  Layout
	cfg     *config.Config
	logger  *slog.Logger
}

// NewStorageService creates a new storage service
func NewStorageService(
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	layout Layout,
	cfg *config.Config,
	logger *slog.Logger,
) mediaSvc.StorageService {
	return &storageService{
		catalog: catalog,
		backend: store,
		layout:  layout,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *storageService) Create(ctx context.Context, req *mediaSvc.CreateStorageRequest) (*models.Storage, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, utils.ToValidationError(err)
	}

	name := strings.TrimSpace(req.Name)

	location := req.Location
	if location == "" {
		location = utils.Slug(name, "-")
	}
	location, err := utils.ValidatePath(location)
	if err != nil {
		return nil, err
	}
	if location == "" {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("storage %q has no usable location", name)}
	}

	disk := req.Disk
	if disk == "" {
		disk = s.cfg.Storage.Disk
	}
	private := s.cfg.Storage.Private
	if req.Private != nil {
		private = *req.Private
	}

	ts := now()
	storage := &models.Storage{
		ID:          uuid.NewString(),
		Name:        name,
		Location:    location,
		Description: req.Description,
		Disk:        disk,
		Private:     private,
		Capacity:    req.Capacity,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.catalog.Storages.Create(ctx, storage); err != nil {
		return nil, err
	}

	s.logger.Info("storage created",
		"storage_id", storage.ID,
		"name", storage.Name,
		"location", storage.Location,
		"disk", storage.Disk,
	)
	return storage, nil
}

func (s *storageService) Get(ctx context.Context, id string) (*models.Storage, error) {
	return s.catalog.Storages.GetByID(ctx, id, mediaRepo.ActiveOnly)
}

func (s *storageService) Resolve(ctx context.Context, idOrPreset string) (*models.Storage, error) {
	if utils.IsUUID(idOrPreset) {
		return s.Get(ctx, idOrPreset)
	}

	presetName := idOrPreset
	if presetName == "" {
		presetName = s.cfg.Storage.Default
	}
	preset, ok := s.cfg.Storage.Preset(presetName)
	if !ok {
		return nil, domain.NewNotFound("storage preset", presetName)
	}

	name := preset.Name
	if name == "" {
		name = presetName
	}
	location := preset.Location
	if location == "" {
		location = utils.Slug(name, "-")
	}
	disk := preset.Disk
	if disk == "" {
		disk = s.cfg.Storage.Disk
	}

	storage, err := s.catalog.Storages.GetByKey(ctx, location, name, disk)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return storage, err
	}

	storage, err = s.Create(ctx, &mediaSvc.CreateStorageRequest{
		Name:     name,
		Location: location,
		Disk:     disk,
		Private:  preset.Private,
	})
	if errors.Is(err, domain.ErrDuplicateNode) {
		// created concurrently
		return s.catalog.Storages.GetByKey(ctx, location, name, disk)
	}
	return storage, err
}

func (s *storageService) Update(ctx context.Context, id string, req *mediaSvc.UpdateStorageRequest) (*models.Storage, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, utils.ToValidationError(err)
	}

	storage, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *storage

	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		location, err := utils.ValidatePath(*req.Location)
		if err != nil {
			return nil, err
		}
		if location == "" {
			return nil, &domain.ValidationError{Message: "storage location cannot be empty"}
		}
		updated.Location = location
	}
	if req.Disk != nil && *req.Disk != "" {
		updated.Disk = *req.Disk
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Private != nil {
		updated.Private = *req.Private
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			updated.Capacity = nil
		} else {
			updated.Capacity = req.Capacity
		}
	}

	if updated.Location != storage.Location || updated.Disk != storage.Disk {
		empty, err := s.IsEmpty(ctx, storage)
		if err != nil {
			return nil, err
		}
		if !empty {
			field := "location"
			if updated.Location == storage.Location {
				field = "disk"
			}
			return nil, &domain.StorageImmutableError{StorageID: storage.ID, Field: field}
		}
	}

	updated.UpdatedAt = now()
	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Storages.Update(txCtx, &updated); err != nil {
			return err
		}
		if updated.Private == storage.Private {
			return nil
		}
		return s.pushVisibility(txCtx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("storage updated", "storage_id", updated.ID, "name", updated.Name, "private", updated.Private)
	return &updated, nil
}

// pushVisibility applies the storage privacy to its backend directory, if any.
func (s *storageService) pushVisibility(ctx context.Context, storage *models.Storage) error {
	path, err := s.Path(storage)
	if err != nil {
		return err
	}
	exists, err := s.backend.Exists(ctx, storage.Disk, path)
	if err != nil || !exists {
		return err
	}
	return s.backend.SetVisibility(ctx, storage.Disk, path, models.VisibilityOf(storage.Private))
}

func (s *storageService) List(ctx context.Context) ([]models.Storage, error) {
	return s.catalog.Storages.List(ctx)
}

func (s *storageService) IsEmpty(ctx context.Context, storage *models.Storage) (bool, error) {
	folders, files, err := s.catalog.Storages.CountContents(ctx, storage.ID)
	if err != nil {
		return false, err
	}
	return folders == 0 && files == 0, nil
}

func (s *storageService) Usage(ctx context.Context, storage *models.Storage) (*mediaSvc.StorageUsage, error) {
	folders, files, err := s.catalog.Storages.CountContents(ctx, storage.ID)
	if err != nil {
		return nil, err
	}
	used, err := s.catalog.Storages.UsedBytes(ctx, storage.ID)
	if err != nil {
		return nil, err
	}
	return &mediaSvc.StorageUsage{
		Folders:   folders,
		Files:     files,
		UsedBytes: used,
		Capacity:  storage.Capacity,
	}, nil
}

func (s *storageService) Trash(ctx context.Context, storage *models.Storage) error {
	if storage.State() == models.StateTrashed {
		return nil
	}
	if err := s.catalog.Storages.Trash(ctx, storage.ID, now()); err != nil {
		return err
	}
	s.logger.Info("storage trashed", "storage_id", storage.ID)
	return nil
}

func (s *storageService) Restore(ctx context.Context, storage *models.Storage) error {
	if storage.State() == models.StateActive {
		return nil
	}
	if err := s.catalog.Storages.Restore(ctx, storage.ID); err != nil {
		return err
	}
	s.logger.Info("storage restored", "storage_id", storage.ID)
	return nil
}

func (s *storageService) Purge(ctx context.Context, storage *models.Storage, force bool) error {
	current, err := s.catalog.Storages.GetByID(ctx, storage.ID, mediaRepo.WithTrashed)
	if err != nil {
		return err
	}
	if current.State() != models.StateTrashed {
		return &domain.ValidationError{Message: fmt.Sprintf("storage %s must be trashed before it is purged", storage.ID)}
	}

	empty, err := s.IsEmpty(ctx, current)
	if err != nil {
		return err
	}
	if !empty && !force {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("storage %s still owns folders or files", storage.ID),
			ResourceType: "storage",
			ResourceID:   storage.ID,
		}
	}

	path, err := s.Path(current)
	if err != nil {
		return err
	}
	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Storages.Delete(txCtx, current.ID); err != nil {
			return err
		}
		return s.backend.DeleteDirectory(txCtx, current.Disk, path)
	})
	if err != nil {
		return fmt.Errorf("purge storage %s: %w", current.ID, err)
	}

	s.logger.Info("storage purged", "storage_id", current.ID, "forced", force, "path", path)
	return nil
}

func (s *storageService) Path(storage *models.Storage, locations ...string) (string, error) {
	return s.layout.StoragePath(storage, locations...)
}

// validateCreateRequest validates a storage creation request
func (s *storageService) validateCreateRequest(req *mediaSvc.CreateStorageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required.Error("storage name cannot be empty"),
			utils.NotBlank.Error("storage name cannot be empty"),
			validation.Length(1, config.MaxStorageNameLength),
		),
		validation.Field(&req.Location, validation.Length(0, config.MaxLocationLength)),
	)
}

// validateUpdateRequest validates a storage update request
func (s *storageService) validateUpdateRequest(req *mediaSvc.UpdateStorageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty.Error("storage name cannot be empty"),
			utils.NotBlank.Error("storage name cannot be empty"),
			validation.Length(1, config.MaxStorageNameLength),
		),
		validation.Field(&req.Location, validation.NilOrNotEmpty.Error("storage location cannot be empty")),
	)
}
