package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// BrowseEngine lists the immediate children of a location
type BrowseEngine interface {
	// Browse lists folders then files at exactly location (nil = root).
	// Pagination is applied only when paginate is non-nil.
	Browse(ctx context.Context, storage *media.Storage, location *string, filters media.BrowseFilters, paginate *media.Pagination) (*media.BrowseResult, error)
}
