package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// StorageService manages namespace roots
type StorageService interface {
	// Create creates a storage. Location defaults to the slug of the name, disk
	// and privacy to the configured storage defaults.
	Create(ctx context.Context, req *CreateStorageRequest) (*media.Storage, error)

	// Get retrieves an active storage by id
	Get(ctx context.Context, id string) (*media.Storage, error)

	// Resolve returns the storage with the given id, or the storage of the named
	// preset (created on first use). "" resolves the default preset.
	Resolve(ctx context.Context, idOrPreset string) (*media.Storage, error)

	// Update changes storage attributes. Location and disk are immutable while
	// the storage owns folders or files.
	Update(ctx context.Context, id string, req *UpdateStorageRequest) (*media.Storage, error)

	List(ctx context.Context) ([]media.Storage, error)

	// IsEmpty reports whether the storage owns no folders and no files
	IsEmpty(ctx context.Context, storage *media.Storage) (bool, error)

	// Usage reports content counts and bytes used
	Usage(ctx context.Context, storage *media.Storage) (*StorageUsage, error)

	Trash(ctx context.Context, storage *media.Storage) error
	Restore(ctx context.Context, storage *media.Storage) error

	// Purge hard deletes a trashed storage. A non-empty storage needs force,
	// which removes all content and the backend directory.
	Purge(ctx context.Context, storage *media.Storage, force bool) error

	// Path is the backend path of the storage, or of locations inside it
	Path(storage *media.Storage, locations ...string) (string, error)
}

// CreateStorageRequest represents a storage creation request
type CreateStorageRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Disk        string `json:"disk,omitempty"`
	Description string `json:"description,omitempty"`
	Private     *bool  `json:"private,omitempty"`
	Capacity    *int64 `json:"capacity,omitempty"`
}

// UpdateStorageRequest represents a storage update; nil fields are unchanged
type UpdateStorageRequest struct {
	Name        *string `json:"name,omitempty"`
	Location    *string `json:"location,omitempty"`
	Disk        *string `json:"disk,omitempty"`
	Description *string `json:"description,omitempty"`
	Private     *bool   `json:"private,omitempty"`
	Capacity    *int64  `json:"capacity,omitempty"`
}

// StorageUsage summarizes what a storage holds
type StorageUsage struct {
	Folders   int64  `json:"folders"`
	Files     int64  `json:"files"`
	UsedBytes int64  `json:"used_bytes"`
	Capacity  *int64 `json:"capacity,omitempty"`
}
