package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
)

type folderRepository struct {
	store *Store
}

func duplicateFolder(folder *models.Folder) error {
	return &domain.DuplicateNodeError{Kind: "folder", Location: folder.Location, Name: folder.Name}
}

func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if err := r.store.conn(ctx).Create(folder).Error; err != nil {
		if isDuplicate(err) {
			return duplicateFolder(folder)
		}
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (r *folderRepository) GetByID(ctx context.Context, id, storageID string, scope mediaRepo.Scope) (*models.Folder, error) {
	db := scoped(r.store.conn(ctx), scope, "deleted_at").Where("id = ?", id)
	if storageID != "" {
		db = db.Where("storage_id = ?", storageID)
	}

	var folder models.Folder
	if err := db.First(&folder).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("folder", id)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &folder, nil
}

func (r *folderRepository) GetByPath(ctx context.Context, storageID, location, name string, scope mediaRepo.Scope) (*models.Folder, error) {
	var folder models.Folder
	err := scoped(r.store.conn(ctx), scope, "deleted_at").
		Where("storage_id = ? AND location = ? AND name = ?", storageID, location, name).
		First(&folder).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("folder", strings.TrimPrefix(location+"/"+name, "/"))
		}
		return nil, fmt.Errorf("get folder by path: %w", err)
	}
	return &folder, nil
}

func (r *folderRepository) Update(ctx context.Context, folder *models.Folder) error {
	result := r.store.conn(ctx).Model(&models.Folder{}).Where("id = ?", folder.ID).Updates(map[string]any{
		"parent_id":   folder.ParentID,
		"name":        folder.Name,
		"location":    folder.Location,
		"description": folder.Description,
		"private":     folder.Private,
		"updated_at":  folder.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return duplicateFolder(folder)
		}
		return fmt.Errorf("update folder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("folder", folder.ID)
	}
	return nil
}

func (r *folderRepository) ListChildren(ctx context.Context, parentID string, scope mediaRepo.Scope) ([]models.Folder, error) {
	folders := []models.Folder{}
	err := scoped(r.store.conn(ctx), scope, "deleted_at").
		Where("parent_id = ?", parentID).
		Order("name").
		Find(&folders).Error
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) CountChildren(ctx context.Context, folderID string) (int64, int64, error) {
	var folders, files int64
	db := r.store.conn(ctx)
	if err := db.Model(&models.Folder{}).Where("parent_id = ?", folderID).Count(&folders).Error; err != nil {
		return 0, 0, fmt.Errorf("count child folders: %w", err)
	}
	if err := db.Model(&models.File{}).Where("folder_id = ?", folderID).Count(&files).Error; err != nil {
		return 0, 0, fmt.Errorf("count child files: %w", err)
	}
	return folders, files, nil
}

func (r *folderRepository) SetPrivateByParent(ctx context.Context, parentID string, private bool) error {
	err := r.store.conn(ctx).Model(&models.Folder{}).
		Where("parent_id = ?", parentID).
		Updates(map[string]any{"private": private, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("set child folder privacy: %w", err)
	}
	return nil
}

func (r *folderRepository) browse(ctx context.Context, q mediaRepo.FolderBrowseQuery) *gorm.DB {
	db := r.store.conn(ctx).Model(&models.Folder{}).
		Where("storage_id = ? AND location = ? AND deleted_at IS NULL", q.StorageID, q.Location)
	if q.Private != nil {
		db = db.Where("private = ?", *q.Private)
	}
	return db
}

func (r *folderRepository) Browse(ctx context.Context, q mediaRepo.FolderBrowseQuery, limit, offset int) ([]models.Folder, error) {
	db := r.browse(ctx, q).Order("name, id")
	if limit > 0 {
		db = db.Limit(limit).Offset(offset)
	}

	folders := []models.Folder{}
	if err := db.Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("browse folders: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) CountBrowse(ctx context.Context, q mediaRepo.FolderBrowseQuery) (int64, error) {
	var total int64
	if err := r.browse(ctx, q).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count folders: %w", err)
	}
	return total, nil
}

func (r *folderRepository) Trash(ctx context.Context, id string, at time.Time) error {
	return r.setDeletedAt(ctx, id, &at)
}

func (r *folderRepository) Restore(ctx context.Context, id string) error {
	return r.setDeletedAt(ctx, id, nil)
}

func (r *folderRepository) setDeletedAt(ctx context.Context, id string, at *time.Time) error {
	result := r.store.conn(ctx).Model(&models.Folder{}).Where("id = ?", id).Update("deleted_at", at)
	if result.Error != nil {
		return fmt.Errorf("set folder deleted_at: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("folder", id)
	}
	return nil
}

func (r *folderRepository) Delete(ctx context.Context, id string) error {
	result := r.store.conn(ctx).Where("id = ?", id).Delete(&models.Folder{})
	if result.Error != nil {
		return fmt.Errorf("delete folder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("folder", id)
	}
	return nil
}

func (r *folderRepository) EmptyFolders(ctx context.Context, q mediaRepo.SweepQuery) ([]models.Folder, error) {
	t := r.store.tables

	db := r.store.conn(ctx).Table(t.Folders+" AS f").Select("f.*").
		Where("f.id > ?", q.AfterID).
		Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s c WHERE c.parent_id = f.id)", t.Folders)).
		Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s fi WHERE fi.folder_id = f.id)", t.Files)).
		Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s s WHERE s.shareable_kind = 'folder' AND s.shareable_id = f.id)", t.Shares)).
		Where(fmt.Sprintf("(f.parent_id IS NULL OR NOT EXISTS (SELECT 1 FROM %s ps WHERE ps.shareable_kind = 'folder' AND ps.shareable_id = f.parent_id))", t.Shares))
	if q.OlderThan != nil {
		db = db.Where("f.created_at <= ?", q.OlderThan.UTC())
	}

	folders := []models.Folder{}
	if err := db.Order("f.id").Limit(sweepLimit(q.Limit)).Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("query empty folders: %w", err)
	}
	return folders, nil
}
