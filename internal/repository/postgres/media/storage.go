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

const storageColumns = `id, name, location, description, disk, private, capacity, created_at, updated_at, deleted_at`

// PostgresStorageRepository implements the StorageRepository interface
type PostgresStorageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewStorageRepository creates a new storage repository
func NewStorageRepository(config *postgres.RepositoryConfig) mediaRepo.StorageRepository {
	return &PostgresStorageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanStorage(row pgx.Row) (*models.Storage, error) {
	var s models.Storage
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.Description,
		&s.Disk,
		&s.Private,
		&s.Capacity,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create creates a new storage
func (r *PostgresStorageRepository) Create(ctx context.Context, storage *models.Storage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, location, description, disk, private, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Storages)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		storage.ID,
		storage.Name,
		storage.Location,
		storage.Description,
		storage.Disk,
		storage.Private,
		storage.Capacity,
		storage.CreatedAt,
		storage.UpdatedAt,
	)
	return postgres.Translate(err, "create storage", nil, func() error {
		return &domain.DuplicateNodeError{Kind: "storage", Location: storage.Location, Name: storage.Name}
	})
}

// GetByID retrieves a storage by ID
func (r *PostgresStorageRepository) GetByID(ctx context.Context, id string, scope mediaRepo.Scope) (*models.Storage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1%s`,
		storageColumns, r.tables.Storages, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	storage, err := scanStorage(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.Translate(err, "get storage", func() error {
			return domain.NewNotFound("storage", id)
		}, nil)
	}
	return storage, nil
}

// GetByKey retrieves an active storage by (location, name, disk)
func (r *PostgresStorageRepository) GetByKey(ctx context.Context, location, name, disk string) (*models.Storage, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE location = $1 AND name = $2 AND disk = $3 AND deleted_at IS NULL
	`, storageColumns, r.tables.Storages)

	executor := postgres.GetExecutor(ctx, r.pool)
	storage, err := scanStorage(executor.QueryRow(ctx, query, location, name, disk))
	if err != nil {
		return nil, postgres.Translate(err, "get storage by key", func() error {
			return domain.NewNotFound("storage", disk+":"+location+"/"+name)
		}, nil)
	}
	return storage, nil
}

// Update updates a storage
func (r *PostgresStorageRepository) Update(ctx context.Context, storage *models.Storage) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, location = $2, description = $3, disk = $4, private = $5, capacity = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Storages)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		storage.Name,
		storage.Location,
		storage.Description,
		storage.Disk,
		storage.Private,
		storage.Capacity,
		storage.UpdatedAt,
		storage.ID,
	)
	if err != nil {
		return postgres.Translate(err, "update storage", nil, func() error {
			return &domain.DuplicateNodeError{Kind: "storage", Location: storage.Location, Name: storage.Name}
		})
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("storage", storage.ID)
	}
	return nil
}

// List returns all active storages
func (r *PostgresStorageRepository) List(ctx context.Context) ([]models.Storage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_at IS NULL ORDER BY name`,
		storageColumns, r.tables.Storages)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list storages: %w", err)
	}
	defer rows.Close()

	storages := []models.Storage{}
	for rows.Next() {
		storage, err := scanStorage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan storage: %w", err)
		}
		storages = append(storages, *storage)
	}
	return storages, rows.Err()
}

// CountContents counts folders and files owned by the storage
func (r *PostgresStorageRepository) CountContents(ctx context.Context, storageID string) (int64, int64, error) {
	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s WHERE storage_id = $1),
			(SELECT COUNT(*) FROM %s WHERE storage_id = $1)
	`, r.tables.Folders, r.tables.Files)

	var folders, files int64
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, storageID).Scan(&folders, &files); err != nil {
		return 0, 0, fmt.Errorf("count storage contents: %w", err)
	}
	return folders, files, nil
}

// UsedBytes sums the total size of every file in the storage
func (r *PostgresStorageRepository) UsedBytes(ctx context.Context, storageID string) (int64, error) {
	query := fmt.Sprintf(`SELECT COALESCE(SUM(total_size), 0) FROM %s WHERE storage_id = $1`, r.tables.Files)

	var used int64
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, storageID).Scan(&used); err != nil {
		return 0, fmt.Errorf("sum storage size: %w", err)
	}
	return used, nil
}

// Trash soft-deletes a storage
func (r *PostgresStorageRepository) Trash(ctx context.Context, id string, at time.Time) error {
	return r.setDeletedAt(ctx, id, &at)
}

// Restore clears the soft-delete marker
func (r *PostgresStorageRepository) Restore(ctx context.Context, id string) error {
	return r.setDeletedAt(ctx, id, nil)
}

func (r *PostgresStorageRepository) setDeletedAt(ctx context.Context, id string, at *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = $1 WHERE id = $2`, r.tables.Storages)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("set storage deleted_at: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("storage", id)
	}
	return nil
}

// Delete removes the storage and everything it owns
func (r *PostgresStorageRepository) Delete(ctx context.Context, id string) error {
	executor := postgres.GetExecutor(ctx, r.pool)

	statements := []string{
		fmt.Sprintf(`DELETE FROM %s WHERE shareable_kind = 'file' AND shareable_id IN (SELECT id FROM %s WHERE storage_id = $1)`,
			r.tables.Shares, r.tables.Files),
		fmt.Sprintf(`DELETE FROM %s WHERE shareable_kind = 'folder' AND shareable_id IN (SELECT id FROM %s WHERE storage_id = $1)`,
			r.tables.Shares, r.tables.Folders),
		fmt.Sprintf(`DELETE FROM %s WHERE storage_id = $1`, r.tables.Files),
		// Self references are cleared first so folders can go in one statement
		fmt.Sprintf(`UPDATE %s SET parent_id = NULL WHERE storage_id = $1`, r.tables.Folders),
		fmt.Sprintf(`DELETE FROM %s WHERE storage_id = $1`, r.tables.Folders),
	}
	for _, stmt := range statements {
		if _, err := executor.Exec(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete storage contents: %w", err)
		}
	}

	result, err := executor.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Storages), id)
	if err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("storage", id)
	}
	return nil
}
