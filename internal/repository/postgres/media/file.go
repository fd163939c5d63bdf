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

const fileColumns = `id, storage_id, folder_id, fqfn, name, location, description, private, filename, mime, mimetype, type, extension, size, original_size, total_size, responsive, owner_kind, owner_id, created_at, updated_at, deleted_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *postgres.RepositoryConfig) mediaRepo.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	err := row.Scan(
		&f.ID,
		&f.StorageID,
		&f.FolderID,
		&f.Fqfn,
		&f.Name,
		&f.Location,
		&f.Description,
		&f.Private,
		&f.Filename,
		&f.Mime,
		&f.Mimetype,
		&f.Type,
		&f.Extension,
		&f.Size,
		&f.OriginalSize,
		&f.TotalSize,
		&f.Responsive,
		&f.OwnerKind,
		&f.OwnerID,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFiles(rows pgx.Rows) ([]models.File, error) {
	defer rows.Close()
	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}
	return files, rows.Err()
}

func duplicateFile(file *models.File) func() error {
	return func() error {
		return &domain.DuplicateNodeError{Kind: "file", Location: file.Location, Name: file.Name}
	}
}

// Create creates a new file
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NULL)
	`, r.tables.Files, fileColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		file.ID,
		file.StorageID,
		file.FolderID,
		file.Fqfn,
		file.Name,
		file.Location,
		file.Description,
		file.Private,
		file.Filename,
		file.Mime,
		file.Mimetype,
		file.Type,
		file.Extension,
		file.Size,
		file.OriginalSize,
		file.TotalSize,
		file.Responsive,
		file.OwnerKind,
		file.OwnerID,
		file.CreatedAt,
		file.UpdatedAt,
	)
	return postgres.Translate(err, "create file", nil, duplicateFile(file))
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id, storageID string, scope mediaRepo.Scope) (*models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND ($2 = '' OR storage_id = $2)%s`,
		fileColumns, r.tables.Files, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id, storageID))
	if err != nil {
		return nil, postgres.Translate(err, "get file", func() error {
			return domain.NewNotFound("file", id)
		}, nil)
	}
	return file, nil
}

// GetByFqfn retrieves a file by its fully qualified file name
func (r *PostgresFileRepository) GetByFqfn(ctx context.Context, fqfn string, scope mediaRepo.Scope) (*models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE fqfn = $1%s`,
		fileColumns, r.tables.Files, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, fqfn))
	if err != nil {
		return nil, postgres.Translate(err, "get file by fqfn", func() error {
			return domain.NewNotFound("file", fqfn)
		}, nil)
	}
	return file, nil
}

// Update updates a file
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, fqfn = $2, name = $3, location = $4, description = $5, private = $6,
		    filename = $7, mime = $8, mimetype = $9, type = $10, extension = $11,
		    size = $12, original_size = $13, total_size = $14, responsive = $15,
		    owner_kind = $16, owner_id = $17, updated_at = $18
		WHERE id = $19
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		file.FolderID,
		file.Fqfn,
		file.Name,
		file.Location,
		file.Description,
		file.Private,
		file.Filename,
		file.Mime,
		file.Mimetype,
		file.Type,
		file.Extension,
		file.Size,
		file.OriginalSize,
		file.TotalSize,
		file.Responsive,
		file.OwnerKind,
		file.OwnerID,
		file.UpdatedAt,
		file.ID,
	)
	if err != nil {
		return postgres.Translate(err, "update file", nil, duplicateFile(file))
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("file", file.ID)
	}
	return nil
}

// ListByFolder lists the files directly inside a folder
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string, scope mediaRepo.Scope) ([]models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = $1%s ORDER BY name`,
		fileColumns, r.tables.Files, scopeClause(scope, "deleted_at"))

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder files: %w", err)
	}
	return collectFiles(rows)
}

// UpdateLocationByFolder rewrites the location of every file inside a folder
func (r *PostgresFileRepository) UpdateLocationByFolder(ctx context.Context, folderID, location string) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET location = $1, updated_at = $2 WHERE folder_id = $3`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, location, time.Now().UTC(), folderID)
	if err != nil {
		return 0, postgres.Translate(err, "cascade file location", nil, func() error {
			return &domain.DuplicateNodeError{Kind: "file", Location: location}
		})
	}
	return result.RowsAffected(), nil
}

// SetPrivateByFolder updates the private flag of files directly inside a folder
func (r *PostgresFileRepository) SetPrivateByFolder(ctx context.Context, folderID string, private bool) error {
	query := fmt.Sprintf(`UPDATE %s SET private = $1, updated_at = $2 WHERE folder_id = $3`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, private, time.Now().UTC(), folderID); err != nil {
		return fmt.Errorf("set file privacy: %w", err)
	}
	return nil
}

func (r *PostgresFileRepository) browseWhere(q mediaRepo.FileBrowseQuery) (string, []any) {
	where := "f.storage_id = $1 AND f.location = $2 AND f.deleted_at IS NULL"
	args := []any{q.StorageID, q.Location}

	if q.Type != "" {
		args = append(args, q.Type)
		where += fmt.Sprintf(" AND f.type = $%d", len(args))
	}
	if q.Mime != "" {
		args = append(args, q.Mime)
		where += fmt.Sprintf(" AND f.mime = $%d", len(args))
	}
	if q.Private != nil {
		args = append(args, *q.Private)
		where += fmt.Sprintf(" AND f.private = $%d", len(args))
	}
	if q.ModelFiles {
		where += fmt.Sprintf(" AND (f.owner_id IS NOT NULL OR EXISTS (SELECT 1 FROM %s l WHERE l.file_id = f.id))",
			r.tables.Fileables)
	}
	return where, args
}

// Browse lists active files at exactly the given location
func (r *PostgresFileRepository) Browse(ctx context.Context, q mediaRepo.FileBrowseQuery, limit, offset int) ([]models.File, error) {
	where, args := r.browseWhere(q)
	query := fmt.Sprintf(`SELECT %s FROM %s f WHERE %s ORDER BY f.name, f.id`,
		prefixColumns("f", fileColumns), r.tables.Files, where)
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("browse files: %w", err)
	}
	return collectFiles(rows)
}

// CountBrowse counts the files Browse would return without pagination
func (r *PostgresFileRepository) CountBrowse(ctx context.Context, q mediaRepo.FileBrowseQuery) (int64, error) {
	where, args := r.browseWhere(q)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s f WHERE %s`, r.tables.Files, where)

	var total int64
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}

// Trash soft-deletes a file
func (r *PostgresFileRepository) Trash(ctx context.Context, id string, at time.Time) error {
	return r.setDeletedAt(ctx, id, &at)
}

// Restore clears the soft-delete marker
func (r *PostgresFileRepository) Restore(ctx context.Context, id string) error {
	return r.setDeletedAt(ctx, id, nil)
}

func (r *PostgresFileRepository) setDeletedAt(ctx context.Context, id string, at *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = $1 WHERE id = $2`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("set file deleted_at: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("file", id)
	}
	return nil
}

// Delete hard-deletes a file row (fileable links cascade)
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("file", id)
	}
	return nil
}

// LonelyFiles returns reaper candidates: no fileable links, shares or owner,
// and no folder or an unshared folder.
func (r *PostgresFileRepository) LonelyFiles(ctx context.Context, q mediaRepo.SweepQuery) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s FROM %[2]s f
		WHERE f.id > $1
		  AND ($2::timestamptz IS NULL OR f.created_at <= $2)
		  AND f.owner_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM %[3]s l WHERE l.file_id = f.id)
		  AND NOT EXISTS (SELECT 1 FROM %[4]s s WHERE s.shareable_kind = 'file' AND s.shareable_id = f.id)
		  AND (f.folder_id IS NULL OR NOT EXISTS (
		        SELECT 1 FROM %[4]s fs WHERE fs.shareable_kind = 'folder' AND fs.shareable_id = f.folder_id))
		ORDER BY f.id
		LIMIT $3
	`, prefixColumns("f", fileColumns), r.tables.Files, r.tables.Fileables, r.tables.Shares)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, q.AfterID, q.OlderThan, sweepLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("query lonely files: %w", err)
	}
	return collectFiles(rows)
}
