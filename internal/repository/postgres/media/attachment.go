package media

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	"medialib/internal/repository/postgres"
)

const attachmentColumns = `id, url, disk, pending, alt, filename, attachable_kind, attachable_id, created_at, updated_at`

// PostgresAttachmentRepository implements the AttachmentRepository interface
type PostgresAttachmentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(config *postgres.RepositoryConfig) mediaRepo.AttachmentRepository {
	return &PostgresAttachmentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanAttachment(row pgx.Row) (*models.Attachment, error) {
	var a models.Attachment
	err := row.Scan(
		&a.ID,
		&a.URL,
		&a.Disk,
		&a.Pending,
		&a.Alt,
		&a.Filename,
		&a.AttachableKind,
		&a.AttachableID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAttachments(rows pgx.Rows) ([]models.Attachment, error) {
	defer rows.Close()
	attachments := []models.Attachment{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, *attachment)
	}
	return attachments, rows.Err()
}

// Create creates a new attachment
func (r *PostgresAttachmentRepository) Create(ctx context.Context, a *models.Attachment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Attachments, attachmentColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		a.ID, a.URL, a.Disk, a.Pending, a.Alt, a.Filename,
		a.AttachableKind, a.AttachableID, a.CreatedAt, a.UpdatedAt,
	)
	return postgres.Translate(err, "create attachment", nil, nil)
}

// GetByID retrieves an attachment by ID
func (r *PostgresAttachmentRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, attachmentColumns, r.tables.Attachments)

	executor := postgres.GetExecutor(ctx, r.pool)
	attachment, err := scanAttachment(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.Translate(err, "get attachment", func() error {
			return domain.NewNotFound("attachment", id)
		}, nil)
	}
	return attachment, nil
}

// ListByURL lists attachments stored under a url
func (r *PostgresAttachmentRepository) ListByURL(ctx context.Context, url string) ([]models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE url = $1 ORDER BY created_at`, attachmentColumns, r.tables.Attachments)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return collectAttachments(rows)
}

// Update updates an attachment
func (r *PostgresAttachmentRepository) Update(ctx context.Context, a *models.Attachment) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET url = $1, disk = $2, pending = $3, alt = $4, filename = $5,
		    attachable_kind = $6, attachable_id = $7, updated_at = $8
		WHERE id = $9
	`, r.tables.Attachments)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		a.URL, a.Disk, a.Pending, a.Alt, a.Filename,
		a.AttachableKind, a.AttachableID, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update attachment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("attachment", a.ID)
	}
	return nil
}

// Delete removes an attachment row
func (r *PostgresAttachmentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Attachments)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("attachment", id)
	}
	return nil
}

// Pending returns attachments that were never persisted
func (r *PostgresAttachmentRepository) Pending(ctx context.Context, q mediaRepo.SweepQuery) ([]models.Attachment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id > $1 AND pending AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY id
		LIMIT $3
	`, attachmentColumns, r.tables.Attachments)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, q.AfterID, q.OlderThan, sweepLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("query pending attachments: %w", err)
	}
	return collectAttachments(rows)
}
