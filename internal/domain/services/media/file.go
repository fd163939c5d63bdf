package media

import (
	"context"
	"time"

	"medialib/internal/domain/models/media"
)

// FileService handles uploaded files
type FileService interface {
	// CreateFile stores the content in the file's id keyed directory and
	// records the file
	CreateFile(ctx context.Context, storage *media.Storage, req *CreateFileRequest) (*media.File, error)

	// FindFile looks a file up by id or fqfn
	FindFile(ctx context.Context, idOrFqfn string) (*media.File, error)

	// Content reads the canonical file content
	Content(ctx context.Context, storage *media.Storage, file *media.File) ([]byte, error)

	// Rename changes the display name. The backend is untouched.
	Rename(ctx context.Context, file *media.File, name string) (*media.File, error)

	SetPrivate(ctx context.Context, storage *media.Storage, file *media.File, private bool) error

	// URL is the public url, or a temporary one for private files
	URL(ctx context.Context, storage *media.Storage, file *media.File, ttl time.Duration) (string, error)

	// Link and Unlink manage many-to-many owner links
	Link(ctx context.Context, file *media.File, owner media.Owner) error
	Unlink(ctx context.Context, file *media.File, owner media.Owner) error
	FilesOf(ctx context.Context, owner media.Owner) ([]media.File, error)

	// SetOwner sets (or clears with nil) the single owning record
	SetOwner(ctx context.Context, file *media.File, owner media.Owner) error

	Trash(ctx context.Context, file *media.File) error
	Restore(ctx context.Context, file *media.File) error

	// Purge hard deletes a trashed file together with its backend directory
	Purge(ctx context.Context, storage *media.Storage, file *media.File) error

	// Path is the backend directory holding the file content and variants
	Path(storage *media.Storage, file *media.File) (string, error)
}

// CreateFileRequest represents an upload
type CreateFileRequest struct {
	Filename    string  `json:"filename"`
	Name        string  `json:"name,omitempty"` // defaults to the filename without extension
	Mimetype    string  `json:"mimetype"`
	Content     []byte  `json:"-"`
	FolderID    *string `json:"folder_id,omitempty"`
	Location    *string `json:"location,omitempty"` // asserted when missing
	Description string  `json:"description,omitempty"`
	Private     *bool   `json:"private,omitempty"` // defaults to folder, then storage
	Owner       media.Owner
}
