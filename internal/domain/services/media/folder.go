package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// FolderService handles folder business logic
type FolderService interface {
	// CreateFolder creates one folder under the parent given by id or location.
	// A location that does not exist yet is asserted first.
	CreateFolder(ctx context.Context, storage *media.Storage, req *CreateFolderRequest) (*media.Folder, error)

	// FindFolder looks a folder up by id or by path
	FindFolder(ctx context.Context, storage *media.Storage, idOrPath string) (*media.Folder, error)

	// Rename changes the folder name, moving its backend directory and
	// cascading the new path to every descendant
	Rename(ctx context.Context, storage *media.Storage, folder *media.Folder, name string) (*media.Folder, error)

	// SetPrivate changes the folder visibility and that of its direct children
	SetPrivate(ctx context.Context, storage *media.Storage, folder *media.Folder, private bool) error

	// Trash soft deletes the folder, its descendants and its shares
	Trash(ctx context.Context, storage *media.Storage, folder *media.Folder) error

	// Restore brings a trashed folder and its trashed descendants back
	Restore(ctx context.Context, storage *media.Storage, folder *media.Folder) error

	// Purge hard deletes a trashed folder. With cascade the whole subtree is
	// removed, otherwise the folder must have no children.
	Purge(ctx context.Context, storage *media.Storage, folder *media.Folder, cascade bool) error

	// Path is the backend directory of the folder
	Path(storage *media.Storage, folder *media.Folder) (string, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name        string  `json:"name"`
	ParentID    *string `json:"parent_id,omitempty"`
	Location    *string `json:"location,omitempty"` // parent path, nil = root
	Description string  `json:"description,omitempty"`
	Private     *bool   `json:"private,omitempty"` // defaults to parent, then storage
}
