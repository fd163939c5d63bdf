package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	models "medialib/internal/domain/models/media"
)

type fileableRepository struct {
	store *Store
}

func (r *fileableRepository) Link(ctx context.Context, fileID string, owner models.OwnerRef) error {
	link := &models.Fileable{FileID: fileID, OwnerKind: owner.Kind, OwnerID: owner.ID}
	err := r.store.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
	if err != nil {
		return fmt.Errorf("link file: %w", err)
	}
	return nil
}

func (r *fileableRepository) Unlink(ctx context.Context, fileID string, owner models.OwnerRef) error {
	err := r.store.conn(ctx).
		Where("file_id = ? AND owner_kind = ? AND owner_id = ?", fileID, owner.Kind, owner.ID).
		Delete(&models.Fileable{}).Error
	if err != nil {
		return fmt.Errorf("unlink file: %w", err)
	}
	return nil
}

func (r *fileableRepository) ListFiles(ctx context.Context, owner models.OwnerRef) ([]models.File, error) {
	t := r.store.tables

	files := []models.File{}
	err := r.store.conn(ctx).Table(t.Files+" AS f").Select("f.*").
		Joins(fmt.Sprintf("JOIN %s l ON l.file_id = f.id", t.Fileables)).
		Where("l.owner_kind = ? AND l.owner_id = ? AND f.deleted_at IS NULL", owner.Kind, owner.ID).
		Order("l.id").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list owner files: %w", err)
	}
	return files, nil
}

func (r *fileableRepository) CountByFile(ctx context.Context, fileID string) (int64, error) {
	var count int64
	if err := r.store.conn(ctx).Model(&models.Fileable{}).Where("file_id = ?", fileID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count file links: %w", err)
	}
	return count, nil
}

func (r *fileableRepository) DeleteByFile(ctx context.Context, fileID string) error {
	if err := r.store.conn(ctx).Where("file_id = ?", fileID).Delete(&models.Fileable{}).Error; err != nil {
		return fmt.Errorf("delete file links: %w", err)
	}
	return nil
}
