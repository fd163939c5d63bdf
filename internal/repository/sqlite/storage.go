package sqlite

import (
	"context"
	"fmt"
	"time"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
)

type storageRepository struct {
	store *Store
}

func (r *storageRepository) Create(ctx context.Context, storage *models.Storage) error {
	if err := r.store.conn(ctx).Create(storage).Error; err != nil {
		if isDuplicate(err) {
			return &domain.DuplicateNodeError{Kind: "storage", Location: storage.Location, Name: storage.Name}
		}
		return fmt.Errorf("create storage: %w", err)
	}
	return nil
}

func (r *storageRepository) GetByID(ctx context.Context, id string, scope mediaRepo.Scope) (*models.Storage, error) {
	var storage models.Storage
	err := scoped(r.store.conn(ctx), scope, "deleted_at").Where("id = ?", id).First(&storage).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("storage", id)
		}
		return nil, fmt.Errorf("get storage: %w", err)
	}
	return &storage, nil
}

func (r *storageRepository) GetByKey(ctx context.Context, location, name, disk string) (*models.Storage, error) {
	var storage models.Storage
	err := r.store.conn(ctx).
		Where("location = ? AND name = ? AND disk = ? AND deleted_at IS NULL", location, name, disk).
		First(&storage).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("storage", disk+":"+location+"/"+name)
		}
		return nil, fmt.Errorf("get storage by key: %w", err)
	}
	return &storage, nil
}

func (r *storageRepository) Update(ctx context.Context, storage *models.Storage) error {
	result := r.store.conn(ctx).Model(&models.Storage{}).Where("id = ?", storage.ID).Updates(map[string]any{
		"name":        storage.Name,
		"location":    storage.Location,
		"description": storage.Description,
		"disk":        storage.Disk,
		"private":     storage.Private,
		"capacity":    storage.Capacity,
		"updated_at":  storage.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return &domain.DuplicateNodeError{Kind: "storage", Location: storage.Location, Name: storage.Name}
		}
		return fmt.Errorf("update storage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("storage", storage.ID)
	}
	return nil
}

func (r *storageRepository) List(ctx context.Context) ([]models.Storage, error) {
	storages := []models.Storage{}
	err := r.store.conn(ctx).Where("deleted_at IS NULL").Order("name").Find(&storages).Error
	if err != nil {
		return nil, fmt.Errorf("list storages: %w", err)
	}
	return storages, nil
}

func (r *storageRepository) CountContents(ctx context.Context, storageID string) (int64, int64, error) {
	var folders, files int64
	db := r.store.conn(ctx)
	if err := db.Model(&models.Folder{}).Where("storage_id = ?", storageID).Count(&folders).Error; err != nil {
		return 0, 0, fmt.Errorf("count storage folders: %w", err)
	}
	if err := db.Model(&models.File{}).Where("storage_id = ?", storageID).Count(&files).Error; err != nil {
		return 0, 0, fmt.Errorf("count storage files: %w", err)
	}
	return folders, files, nil
}

func (r *storageRepository) UsedBytes(ctx context.Context, storageID string) (int64, error) {
	var used int64
	err := r.store.conn(ctx).Model(&models.File{}).
		Where("storage_id = ?", storageID).
		Select("COALESCE(SUM(total_size), 0)").
		Scan(&used).Error
	if err != nil {
		return 0, fmt.Errorf("sum storage size: %w", err)
	}
	return used, nil
}

func (r *storageRepository) Trash(ctx context.Context, id string, at time.Time) error {
	return r.setDeletedAt(ctx, id, &at)
}

func (r *storageRepository) Restore(ctx context.Context, id string) error {
	return r.setDeletedAt(ctx, id, nil)
}

func (r *storageRepository) setDeletedAt(ctx context.Context, id string, at *time.Time) error {
	result := r.store.conn(ctx).Model(&models.Storage{}).Where("id = ?", id).Update("deleted_at", at)
	if result.Error != nil {
		return fmt.Errorf("set storage deleted_at: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("storage", id)
	}
	return nil
}

func (r *storageRepository) Delete(ctx context.Context, id string) error {
	db := r.store.conn(ctx)
	t := r.store.tables

	statements := []string{
		fmt.Sprintf(`DELETE FROM %s WHERE file_id IN (SELECT id FROM %s WHERE storage_id = ?)`, t.Fileables, t.Files),
		fmt.Sprintf(`DELETE FROM %s WHERE shareable_kind = 'file' AND shareable_id IN (SELECT id FROM %s WHERE storage_id = ?)`, t.Shares, t.Files),
		fmt.Sprintf(`DELETE FROM %s WHERE shareable_kind = 'folder' AND shareable_id IN (SELECT id FROM %s WHERE storage_id = ?)`, t.Shares, t.Folders),
		fmt.Sprintf(`DELETE FROM %s WHERE storage_id = ?`, t.Files),
		fmt.Sprintf(`DELETE FROM %s WHERE storage_id = ?`, t.Folders),
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt, id).Error; err != nil {
			return fmt.Errorf("delete storage contents: %w", err)
		}
	}

	result := db.Where("id = ?", id).Delete(&models.Storage{})
	if result.Error != nil {
		return fmt.Errorf("delete storage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("storage", id)
	}
	return nil
}
