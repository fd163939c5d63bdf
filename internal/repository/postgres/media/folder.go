package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	"medialib/internal/repository/postgres"
)

const folderColumns = `id, storage_id, parent_id, name, location, description, private, created_at, updated_at, deleted_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) mediaRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var f models.Folder
	err := row.Scan(
		&f.ID,
		&f.StorageID,
		&f.ParentID,
		&f.Name,
		&f.Location,
		&f.Description,
		&f.Private,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFolders(rows pgx.Rows) ([]models.Folder, error) {
	defer rows.Close()
	folders := []models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}
	return folders, rows.Err()
}

func duplicateFolder(folder *models.Folder) func() error {
	return func() error {
		return &domain.DuplicateNodeError{Kind: "folder", Location: folder.Location, Name: folder.Name}
	}
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, storage_id, parent_id, name, location, description, private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		folder.ID,
		folder.StorageID,
		folder.ParentID,
		folder.Name,
		folder.Location,
		folder.Description,
		folder.Private,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	return postgres.Translate(err, "create folder", nil, duplicateFolder(folder))
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id, storageID string, scope mediaRepo.Scope) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND ($2 = '' OR storage_id = $2)%s`,
		folderColumns, r.tables.Folders, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, id, storageID))
	if err != nil {
		return nil, postgres.Translate(err, "get folder", func() error {
			return domain.NewNotFound("folder", id)
		}, nil)
	}
	return folder, nil
}

// GetByPath retrieves the folder named name at location
func (r *PostgresFolderRepository) GetByPath(ctx context.Context, storageID, location, name string, scope mediaRepo.Scope) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE storage_id = $1 AND location = $2 AND name = $3%s`,
		folderColumns, r.tables.Folders, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, storageID, location, name))
	if err != nil {
		return nil, postgres.Translate(err, "get folder by path", func() error {
			return domain.NewNotFound("folder", strings.TrimPrefix(location+"/"+name, "/"))
		}, nil)
	}
	return folder, nil
}

// Update updates a folder
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, location = $3, description = $4, private = $5, updated_at = $6
		WHERE id = $7
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.ParentID,
		folder.Name,
		folder.Location,
		folder.Description,
		folder.Private,
		folder.UpdatedAt,
		folder.ID,
	)
	if err != nil {
		return postgres.Translate(err, "update folder", nil, duplicateFolder(folder))
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("folder", folder.ID)
	}
	return nil
}

// ListChildren lists immediate child folders
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID string, scope mediaRepo.Scope) ([]models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id = $1%s ORDER BY name`,
		folderColumns, r.tables.Folders, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return collectFolders(rows)
}

// CountChildren counts child folders and files, trashed included
func (r *PostgresFolderRepository) CountChildren(ctx context.Context, folderID string) (int64, int64, error) {
	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s WHERE parent_id = $1),
			(SELECT COUNT(*) FROM %s WHERE folder_id = $1)
	`, r.tables.Folders, r.tables.Files)

	var folders, files int64
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, folderID).Scan(&folders, &files); err != nil {
		return 0, 0, fmt.Errorf("count folder children: %w", err)
	}
	return folders, files, nil
}

// SetPrivateByParent updates the private flag of the direct child folders
func (r *PostgresFolderRepository) SetPrivateByParent(ctx context.Context, parentID string, private bool) error {
	query := fmt.Sprintf(`UPDATE %s SET private = $1, updated_at = $2 WHERE parent_id = $3`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, private, time.Now().UTC(), parentID); err != nil {
		return fmt.Errorf("set child folder privacy: %w", err)
	}
	return nil
}

func (r *PostgresFolderRepository) browseWhere(q mediaRepo.FolderBrowseQuery) (string, []any) {
	where := "storage_id = $1 AND location = $2 AND deleted_at IS NULL"
	args := []any{q.StorageID, q.Location}
	if q.Private != nil {
		args = append(args, *q.Private)
		where += fmt.Sprintf(" AND private = $%d", len(args))
	}
	return where, args
}

// Browse lists active folders at exactly the given location
func (r *PostgresFolderRepository) Browse(ctx context.Context, q mediaRepo.FolderBrowseQuery, limit, offset int) ([]models.Folder, error) {
	where, args := r.browseWhere(q)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY name, id`, folderColumns, r.tables.Folders, where)
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("browse folders: %w", err)
	}
	return collectFolders(rows)
}

// CountBrowse counts the folders Browse would return without pagination
func (r *PostgresFolderRepository) CountBrowse(ctx context.Context, q mediaRepo.FolderBrowseQuery) (int64, error) {
	where, args := r.browseWhere(q)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Folders, where)

	var total int64
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count folders: %w", err)
	}
	return total, nil
}

// Trash soft-deletes a folder
func (r *PostgresFolderRepository) Trash(ctx context.Context, id string, at time.Time) error {
	return r.setDeletedAt(ctx, id, &at)
}

// Restore clears the soft-delete marker
func (r *PostgresFolderRepository) Restore(ctx context.Context, id string) error {
	return r.setDeletedAt(ctx, id, nil)
}

func (r *PostgresFolderRepository) setDeletedAt(ctx context.Context, id string, at *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = $1 WHERE id = $2`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("set folder deleted_at: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("folder", id)
	}
	return nil
}

// Delete hard-deletes a folder row
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return &domain.ConflictError{Message: "folder still has children", ResourceType: "folder", ResourceID: id}
		}
		return fmt.Errorf("delete folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("folder", id)
	}
	return nil
}

// EmptyFolders returns reaper candidates: no child folders, files or shares,
// and no parent or an unshared parent.
func (r *PostgresFolderRepository) EmptyFolders(ctx context.Context, q mediaRepo.SweepQuery) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s FROM %[2]s f
		WHERE f.id > $1
		  AND ($2::timestamptz IS NULL OR f.created_at <= $2)
		  AND NOT EXISTS (SELECT 1 FROM %[2]s c WHERE c.parent_id = f.id)
		  AND NOT EXISTS (SELECT 1 FROM %[3]s fi WHERE fi.folder_id = f.id)
		  AND NOT EXISTS (SELECT 1 FROM %[4]s s WHERE s.shareable_kind = 'folder' AND s.shareable_id = f.id)
		  AND (f.parent_id IS NULL OR NOT EXISTS (
		        SELECT 1 FROM %[4]s ps WHERE ps.shareable_kind = 'folder' AND ps.shareable_id = f.parent_id))
		ORDER BY f.id
		LIMIT $3
	`, prefixColumns("f", folderColumns), r.tables.Folders, r.tables.Files, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, q.AfterID, q.OlderThan, sweepLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("query empty folders: %w", err)
	}
	return collectFolders(rows)
}

// prefixColumns qualifies a column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
