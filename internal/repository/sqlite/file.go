package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
)

type fileRepository struct {
	store *Store
}

func duplicateFile(file *models.File) error {
	return &domain.DuplicateNodeError{Kind: "file", Location: file.Location, Name: file.Name}
}

func (r *fileRepository) Create(ctx context.Context, file *models.File) error {
	if err := r.store.conn(ctx).Create(file).Error; err != nil {
		if isDuplicate(err) {
			return duplicateFile(file)
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id, storageID string, scope mediaRepo.Scope) (*models.File, error) {
	db := scoped(r.store.conn(ctx), scope, "deleted_at").Where("id = ?", id)
	if storageID != "" {
		db = db.Where("storage_id = ?", storageID)
	}

	var file models.File
	if err := db.First(&file).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("file", id)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &file, nil
}

func (r *fileRepository) GetByFqfn(ctx context.Context, fqfn string, scope mediaRepo.Scope) (*models.File, error) {
	var file models.File
	err := scoped(r.store.conn(ctx), scope, "deleted_at").Where("fqfn = ?", fqfn).First(&file).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("file", fqfn)
		}
		return nil, fmt.Errorf("get file by fqfn: %w", err)
	}
	return &file, nil
}

func (r *fileRepository) Update(ctx context.Context, file *models.File) error {
	result := r.store.conn(ctx).Model(&models.File{}).Where("id = ?", file.ID).Updates(map[string]any{
		"folder_id":     file.FolderID,
		"fqfn":          file.Fqfn,
		"name":          file.Name,
		"location":      file.Location,
		"description":   file.Description,
		"private":       file.Private,
		"filename":      file.Filename,
		"mime":          file.Mime,
		"mimetype":      file.Mimetype,
		"type":          file.Type,
		"extension":     file.Extension,
		"size":          file.Size,
		"original_size": file.OriginalSize,
		"total_size":    file.TotalSize,
		"responsive":    file.Responsive,
		"owner_kind":    file.OwnerKind,
		"owner_id":      file.OwnerID,
		"updated_at":    file.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return duplicateFile(file)
		}
		return fmt.Errorf("update file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("file", file.ID)
	}
	return nil
}

func (r *fileRepository) ListByFolder(ctx context.Context, folderID string, scope mediaRepo.Scope) ([]models.File, error) {
	files := []models.File{}
	err := scoped(r.store.conn(ctx), scope, "deleted_at").
		Where("folder_id = ?", folderID).
		Order("name").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list folder files: %w", err)
	}
	return files, nil
}

func (r *fileRepository) UpdateLocationByFolder(ctx context.Context, folderID, location string) (int64, error) {
	result := r.store.conn(ctx).Model(&models.File{}).
		Where("folder_id = ?", folderID).
		Updates(map[string]any{"location": location, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return 0, &domain.DuplicateNodeError{Kind: "file", Location: location}
		}
		return 0, fmt.Errorf("cascade file location: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *fileRepository) SetPrivateByFolder(ctx context.Context, folderID string, private bool) error {
	err := r.store.conn(ctx).Model(&models.File{}).
		Where("folder_id = ?", folderID).
		Updates(map[string]any{"private": private, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("set file privacy: %w", err)
	}
	return nil
}

func (r *fileRepository) browse(ctx context.Context, q mediaRepo.FileBrowseQuery) *gorm.DB {
	db := r.store.conn(ctx).Table(r.store.tables.Files+" AS f").
		Where("f.storage_id = ? AND f.location = ? AND f.deleted_at IS NULL", q.StorageID, q.Location)
	if q.Type != "" {
		db = db.Where("f.type = ?", q.Type)
	}
	if q.Mime != "" {
		db = db.Where("f.mime = ?", q.Mime)
	}
	if q.Private != nil {
		db = db.Where("f.private = ?", *q.Private)
	}
	if q.ModelFiles {
		db = db.Where(fmt.Sprintf("(f.owner_id IS NOT NULL OR EXISTS (SELECT 1 FROM %s l WHERE l.file_id = f.id))",
			r.store.tables.Fileables))
	}
	return db
}

func (r *fileRepository) Browse(ctx context.Context, q mediaRepo.FileBrowseQuery, limit, offset int) ([]models.File, error) {
	db := r.browse(ctx, q).Select("f.*").Order("f.name, f.id")
	if limit > 0 {
		db = db.Limit(limit).Offset(offset)
	}

	files := []models.File{}
	if err := db.Find(&files).Error; err != nil {
		return nil, fmt.Errorf("browse files: %w", err)
	}
	return files, nil
}

func (r *fileRepository) CountBrowse(ctx context.Context, q mediaRepo.FileBrowseQuery) (int64, error) {
	var total int64
	if err := r.browse(ctx, q).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}

func (r *fileRepository) Trash(ctx context.Context, id string, at time.Time) error {
	return r.setDeletedAt(ctx, id, &at)
}

func (r *fileRepository) Restore(ctx context.Context, id string) error {
	return r.setDeletedAt(ctx, id, nil)
}

func (r *fileRepository) setDeletedAt(ctx context.Context, id string, at *time.Time) error {
	result := r.store.conn(ctx).Model(&models.File{}).Where("id = ?", id).Update("deleted_at", at)
	if result.Error != nil {
		return fmt.Errorf("set file deleted_at: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("file", id)
	}
	return nil
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	db := r.store.conn(ctx)
	if err := db.Where("file_id = ?", id).Delete(&models.Fileable{}).Error; err != nil {
		return fmt.Errorf("delete file links: %w", err)
	}

	result := db.Where("id = ?", id).Delete(&models.File{})
	if result.Error != nil {
		return fmt.Errorf("delete file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("file", id)
	}
	return nil
}

func (r *fileRepository) LonelyFiles(ctx context.Context, q mediaRepo.SweepQuery) ([]models.File, error) {
	t := r.store.tables

	db := r.store.conn(ctx).Table(t.Files+" AS f").Select("f.*").
		Where("f.id > ?", q.AfterID).
		Where("f.owner_id IS NULL").
		Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s l WHERE l.file_id = f.id)", t.Fileables)).
		Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s s WHERE s.shareable_kind = 'file' AND s.shareable_id = f.id)", t.Shares)).
		Where(fmt.Sprintf("(f.folder_id IS NULL OR NOT EXISTS (SELECT 1 FROM %s fs WHERE fs.shareable_kind = 'folder' AND fs.shareable_id = f.folder_id))", t.Shares))
	if q.OlderThan != nil {
		db = db.Where("f.created_at <= ?", q.OlderThan.UTC())
	}

	files := []models.File{}
	if err := db.Order("f.id").Limit(sweepLimit(q.Limit)).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("query lonely files: %w", err)
	}
	return files, nil
}
