package sqlite

import (
	"context"
	"fmt"
	"time"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
)

type shareRepository struct {
	store *Store
}

func (r *shareRepository) Create(ctx context.Context, share *models.SharedContent) error {
	if err := r.store.conn(ctx).Create(share).Error; err != nil {
		return fmt.Errorf("create share: %w", err)
	}
	return nil
}

func (r *shareRepository) GetByID(ctx context.Context, id string, scope mediaRepo.Scope) (*models.SharedContent, error) {
	var share models.SharedContent
	err := scoped(r.store.conn(ctx), scope, "deleted_at").Where("id = ?", id).First(&share).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("share", id)
		}
		return nil, fmt.Errorf("get share: %w", err)
	}
	return &share, nil
}

func (r *shareRepository) ListFor(ctx context.Context, kind models.ShareableKind, id string) ([]models.SharedContent, error) {
	shares := []models.SharedContent{}
	err := r.store.conn(ctx).
		Where("shareable_kind = ? AND shareable_id = ? AND deleted_at IS NULL", kind, id).
		Order("created_at").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return shares, nil
}

func (r *shareRepository) Delete(ctx context.Context, id string) error {
	result := r.store.conn(ctx).Where("id = ?", id).Delete(&models.SharedContent{})
	if result.Error != nil {
		return fmt.Errorf("delete share: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("share", id)
	}
	return nil
}

func (r *shareRepository) DeleteFor(ctx context.Context, kind models.ShareableKind, id string) error {
	err := r.store.conn(ctx).
		Where("shareable_kind = ? AND shareable_id = ?", kind, id).
		Delete(&models.SharedContent{}).Error
	if err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	return nil
}

func (r *shareRepository) Expired(ctx context.Context, now time.Time, q mediaRepo.SweepQuery) ([]models.SharedContent, error) {
	db := r.store.conn(ctx).
		Where("id > ?", q.AfterID).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC())
	if q.OlderThan != nil {
		db = db.Where("created_at <= ?", q.OlderThan.UTC())
	}

	shares := []models.SharedContent{}
	if err := db.Order("id").Limit(sweepLimit(q.Limit)).Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("query expired shares: %w", err)
	}
	return shares, nil
}
