package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// PathResolver maps slash separated paths to folders of a storage
type PathResolver interface {
	// Resolve returns the folder at path. A missing folder yields (nil, nil)
	// unless create is set, in which case the whole chain is asserted.
	// The root path resolves to (nil, nil).
	Resolve(ctx context.Context, storage *media.Storage, path string, create bool) (*media.Folder, error)

	// Assert returns the folder at path, creating every missing ancestor.
	// Calling it twice with the same path returns the same folder.
	Assert(ctx context.Context, storage *media.Storage, path string) (*media.Folder, error)
}
