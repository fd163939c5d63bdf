package sqlite

import (
	"context"
	"fmt"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
)

type attachmentRepository struct {
	store *Store
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if err := r.store.conn(ctx).Create(attachment).Error; err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.store.conn(ctx).Where("id = ?", id).First(&attachment).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFound("attachment", id)
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByURL(ctx context.Context, url string) ([]models.Attachment, error) {
	attachments := []models.Attachment{}
	if err := r.store.conn(ctx).Where("url = ?", url).Order("created_at").Find(&attachments).Error; err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

func (r *attachmentRepository) Update(ctx context.Context, a *models.Attachment) error {
	result := r.store.conn(ctx).Model(&models.Attachment{}).Where("id = ?", a.ID).Updates(map[string]any{
		"url":             a.URL,
		"disk":            a.Disk,
		"pending":         a.Pending,
		"alt":             a.Alt,
		"filename":        a.Filename,
		"attachable_kind": a.AttachableKind,
		"attachable_id":   a.AttachableID,
		"updated_at":      a.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("update attachment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("attachment", a.ID)
	}
	return nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	result := r.store.conn(ctx).Where("id = ?", id).Delete(&models.Attachment{})
	if result.Error != nil {
		return fmt.Errorf("delete attachment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("attachment", id)
	}
	return nil
}

func (r *attachmentRepository) Pending(ctx context.Context, q mediaRepo.SweepQuery) ([]models.Attachment, error) {
	db := r.store.conn(ctx).Where("id > ? AND pending = ?", q.AfterID, true)
	if q.OlderThan != nil {
		db = db.Where("created_at <= ?", q.OlderThan.UTC())
	}

	attachments := []models.Attachment{}
	if err := db.Order("id").Limit(sweepLimit(q.Limit)).Find(&attachments).Error; err != nil {
		return nil, fmt.Errorf("query pending attachments: %w", err)
	}
	return attachments, nil
}
