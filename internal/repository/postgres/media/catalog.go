package media

import (
	mediaRepo "medialib/internal/domain/repositories/media"
	"medialib/internal/repository/postgres"
)

// NewCatalog wires every postgres repository onto one pool.
func NewCatalog(config *postgres.RepositoryConfig) *mediaRepo.Catalog {
	return &mediaRepo.Catalog{
		Storages:    NewStorageRepository(config),
		Folders:     NewFolderRepository(config),
		Files:       NewFileRepository(config),
		Shares:      NewShareRepository(config),
		Attachments: NewAttachmentRepository(config),
		Fileables:   NewFileableRepository(config),
		Tx:          postgres.NewTransactionManager(config.Pool, config.Logger),
	}
}

// scopeClause renders the deleted_at predicate for scope ("" for WithTrashed).
func scopeClause(scope mediaRepo.Scope, column string) string {
	switch scope {
	case mediaRepo.ActiveOnly:
		return " AND " + column + " IS NULL"
	case mediaRepo.OnlyTrashed:
		return " AND " + column + " IS NOT NULL"
	}
	return ""
}

// sweepLimit defaults non-positive limits to the reaper batch size.
func sweepLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
