package media

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	"medialib/internal/repository/postgres"
)

// PostgresFileableRepository implements the FileableRepository interface
type PostgresFileableRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFileableRepository creates a new fileable link repository
func NewFileableRepository(config *postgres.RepositoryConfig) mediaRepo.FileableRepository {
	return &PostgresFileableRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Link associates a file with an owner; existing links are kept
func (r *PostgresFileableRepository) Link(ctx context.Context, fileID string, owner models.OwnerRef) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_id, owner_kind, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (file_id, owner_kind, owner_id) DO NOTHING
	`, r.tables.Fileables)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, fileID, owner.Kind, owner.ID); err != nil {
		return fmt.Errorf("link file: %w", err)
	}
	return nil
}

// Unlink removes the association between a file and an owner
func (r *PostgresFileableRepository) Unlink(ctx context.Context, fileID string, owner models.OwnerRef) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1 AND owner_kind = $2 AND owner_id = $3`, r.tables.Fileables)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, fileID, owner.Kind, owner.ID); err != nil {
		return fmt.Errorf("unlink file: %w", err)
	}
	return nil
}

// ListFiles lists the active files linked to an owner
func (r *PostgresFileableRepository) ListFiles(ctx context.Context, owner models.OwnerRef) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s f
		JOIN %s l ON l.file_id = f.id
		WHERE l.owner_kind = $1 AND l.owner_id = $2 AND f.deleted_at IS NULL
		ORDER BY l.id
	`, prefixColumns("f", fileColumns), r.tables.Files, r.tables.Fileables)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list owner files: %w", err)
	}
	return collectFiles(rows)
}

// CountByFile counts the owners linked to a file
func (r *PostgresFileableRepository) CountByFile(ctx context.Context, fileID string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE file_id = $1`, r.tables.Fileables)

	var count int64
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, fileID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count file links: %w", err)
	}
	return count, nil
}

// DeleteByFile removes every link of a file
func (r *PostgresFileableRepository) DeleteByFile(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, r.tables.Fileables)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, fileID); err != nil {
		return fmt.Errorf("delete file links: %w", err)
	}
	return nil
}
