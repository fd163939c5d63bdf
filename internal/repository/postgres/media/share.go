package media

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	"medialib/internal/repository/postgres"
)

const shareColumns = `id, name, description, shareable_kind, shareable_id, access_type, public, can_remove, can_upload, downloads, max_downloads, expires_at, created_at, updated_at, deleted_at`

// PostgresShareRepository implements the ShareRepository interface
type PostgresShareRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewShareRepository creates a new shared content repository
func NewShareRepository(config *postgres.RepositoryConfig) mediaRepo.ShareRepository {
	return &PostgresShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanShare(row pgx.Row) (*models.SharedContent, error) {
	var s models.SharedContent
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.ShareableKind,
		&s.ShareableID,
		&s.AccessType,
		&s.Public,
		&s.CanRemove,
		&s.CanUpload,
		&s.Downloads,
		&s.MaxDownloads,
		&s.ExpiresAt,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectShares(rows pgx.Rows) ([]models.SharedContent, error) {
	defer rows.Close()
	shares := []models.SharedContent{}
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *share)
	}
	return shares, rows.Err()
}

// Create creates a new share
func (r *PostgresShareRepository) Create(ctx context.Context, share *models.SharedContent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULL)
	`, r.tables.Shares, shareColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		share.ID,
		share.Name,
		share.Description,
		share.ShareableKind,
		share.ShareableID,
		share.AccessType,
		share.Public,
		share.CanRemove,
		share.CanUpload,
		share.Downloads,
		share.MaxDownloads,
		share.ExpiresAt,
		share.CreatedAt,
		share.UpdatedAt,
	)
	return postgres.Translate(err, "create share", nil, nil)
}

// GetByID retrieves a share by ID
func (r *PostgresShareRepository) GetByID(ctx context.Context, id string, scope mediaRepo.Scope) (*models.SharedContent, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1%s`,
		shareColumns, r.tables.Shares, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	share, err := scanShare(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.Translate(err, "get share", func() error {
			return domain.NewNotFound("share", id)
		}, nil)
	}
	return share, nil
}

// ListFor lists the active shares of a file or folder
func (r *PostgresShareRepository) ListFor(ctx context.Context, kind models.ShareableKind, id string) ([]models.SharedContent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE shareable_kind = $1 AND shareable_id = $2 AND deleted_at IS NULL
		ORDER BY created_at
	`, shareColumns, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, kind, id)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return collectShares(rows)
}

// Delete hard-deletes a share
func (r *PostgresShareRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("share", id)
	}
	return nil
}

// DeleteFor removes every share of a file or folder
func (r *PostgresShareRepository) DeleteFor(ctx context.Context, kind models.ShareableKind, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE shareable_kind = $1 AND shareable_id = $2`, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, kind, id); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	return nil
}

// Expired returns shares whose expires_at has passed
func (r *PostgresShareRepository) Expired(ctx context.Context, now time.Time, q mediaRepo.SweepQuery) ([]models.SharedContent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id > $1
		  AND expires_at IS NOT NULL AND expires_at <= $2
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY id
		LIMIT $4
	`, shareColumns, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, q.AfterID, now, q.OlderThan, sweepLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("query expired shares: %w", err)
	}
	return collectShares(rows)
}
