package media

import (
	"context"
	"time"

	"medialib/internal/domain/models/media"
	"medialib/internal/domain/repositories"
)

// Scope selects which lifecycle states a query sees.
type Scope int

const (
	// ActiveOnly hides trashed rows.
	ActiveOnly Scope = iota
	// WithTrashed includes trashed rows.
	WithTrashed
	// OnlyTrashed returns trashed rows only.
	OnlyTrashed
)

// Catalog bundles every repository of one catalog backend.
type Catalog struct {
	Storages    StorageRepository
	Folders     FolderRepository
	Files       FileRepository
	Shares      ShareRepository
	Attachments AttachmentRepository
	Fileables   FileableRepository
	Tx          repositories.TransactionManager
}

// SweepQuery pages through reaper candidates by id.
type SweepQuery struct {
	// OlderThan restricts candidates to rows created at or before this instant.
	OlderThan *time.Time
	// AfterID is the keyset cursor: only ids greater than it are returned.
	AfterID string
	Limit   int
}

// FolderBrowseQuery selects the folders shown at one location.
type FolderBrowseQuery struct {
	StorageID string
	Location  string // "" = root
	Private   *bool
}

// FileBrowseQuery selects the files shown at one location.
type FileBrowseQuery struct {
	StorageID  string
	Location   string // "" = root
	Type       string
	Mime       string
	Private    *bool
	ModelFiles bool
}

// StorageRepository defines data access operations for storages
type StorageRepository interface {
	// Create inserts a storage. A taken (location, name, disk) yields DuplicateNodeError.
	Create(ctx context.Context, storage *media.Storage) error

	// GetByID retrieves a storage by ID
	GetByID(ctx context.Context, id string, scope Scope) (*media.Storage, error)

	// GetByKey retrieves a storage by its natural key
	GetByKey(ctx context.Context, location, name, disk string) (*media.Storage, error)

	// Update persists name, location, description, disk, private and capacity
	Update(ctx context.Context, storage *media.Storage) error

	// List returns all active storages ordered by name
	List(ctx context.Context) ([]media.Storage, error)

	// CountContents counts folders and files (trashed included) owned by the storage
	CountContents(ctx context.Context, storageID string) (folders, files int64, err error)

	// UsedBytes sums total_size over the storage's files
	UsedBytes(ctx context.Context, storageID string) (int64, error)

	Trash(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string) error

	// Delete removes the storage row together with its folders, files, shares and links
	Delete(ctx context.Context, id string) error
}

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create inserts a folder. A taken (location, name, storage) yields DuplicateNodeError.
	Create(ctx context.Context, folder *media.Folder) error

	// GetByID retrieves a folder by ID. storageID "" skips the storage check.
	GetByID(ctx context.Context, id, storageID string, scope Scope) (*media.Folder, error)

	// GetByPath retrieves the folder named name at location
	GetByPath(ctx context.Context, storageID, location, name string, scope Scope) (*media.Folder, error)

	// Update persists name, location, parent, private and description
	Update(ctx context.Context, folder *media.Folder) error

	// ListChildren lists immediate child folders of parentID
	ListChildren(ctx context.Context, parentID string, scope Scope) ([]media.Folder, error)

	// CountChildren counts child folders and files (trashed included)
	CountChildren(ctx context.Context, folderID string) (folders, files int64, err error)

	// SetPrivateByParent updates the private flag of the direct child folders
	SetPrivateByParent(ctx context.Context, parentID string, private bool) error

	// Browse lists active folders at exactly query.Location, ordered by name
	Browse(ctx context.Context, query FolderBrowseQuery, limit, offset int) ([]media.Folder, error)
	CountBrowse(ctx context.Context, query FolderBrowseQuery) (int64, error)

	Trash(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// EmptyFolders returns folders (trashed included) with no child folders, files or
	// shares whose parent is absent or unshared.
	EmptyFolders(ctx context.Context, query SweepQuery) ([]media.Folder, error)
}

// FileRepository defines data access operations for files
type FileRepository interface {
	// Create inserts a file. A taken (location, name, folder, storage) yields DuplicateNodeError.
	Create(ctx context.Context, file *media.File) error

	// GetByID retrieves a file by ID. storageID "" skips the storage check.
	GetByID(ctx context.Context, id, storageID string, scope Scope) (*media.File, error)

	// GetByFqfn retrieves a file by its fully qualified file name
	GetByFqfn(ctx context.Context, fqfn string, scope Scope) (*media.File, error)

	// Update persists every mutable column
	Update(ctx context.Context, file *media.File) error

	// ListByFolder lists the files directly inside folderID
	ListByFolder(ctx context.Context, folderID string, scope Scope) ([]media.File, error)

	// UpdateLocationByFolder rewrites location of every file (trashed included) inside folderID
	UpdateLocationByFolder(ctx context.Context, folderID, location string) (int64, error)

	// SetPrivateByFolder updates the private flag of files directly inside folderID
	SetPrivateByFolder(ctx context.Context, folderID string, private bool) error

	// Browse lists active files at exactly query.Location, ordered by name
	Browse(ctx context.Context, query FileBrowseQuery, limit, offset int) ([]media.File, error)
	CountBrowse(ctx context.Context, query FileBrowseQuery) (int64, error)

	Trash(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// LonelyFiles returns files (trashed included) without fileable links, shares or
	// owner whose folder is absent or unshared.
	LonelyFiles(ctx context.Context, query SweepQuery) ([]media.File, error)
}

// ShareRepository defines data access operations for shared content
type ShareRepository interface {
	Create(ctx context.Context, share *media.SharedContent) error
	GetByID(ctx context.Context, id string, scope Scope) (*media.SharedContent, error)
	ListFor(ctx context.Context, kind media.ShareableKind, id string) ([]media.SharedContent, error)
	Delete(ctx context.Context, id string) error
	DeleteFor(ctx context.Context, kind media.ShareableKind, id string) error

	// Expired returns shares (trashed included) with expires_at <= now
	Expired(ctx context.Context, now time.Time, query SweepQuery) ([]media.SharedContent, error)
}

// AttachmentRepository defines data access operations for attachments
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *media.Attachment) error
	GetByID(ctx context.Context, id string) (*media.Attachment, error)
	ListByURL(ctx context.Context, url string) ([]media.Attachment, error)
	Update(ctx context.Context, attachment *media.Attachment) error
	Delete(ctx context.Context, id string) error

	// Pending returns attachments still waiting to be persisted
	Pending(ctx context.Context, query SweepQuery) ([]media.Attachment, error)
}

// FileableRepository links files to external owning records
type FileableRepository interface {
	// Link is idempotent
	Link(ctx context.Context, fileID string, owner media.OwnerRef) error
	Unlink(ctx context.Context, fileID string, owner media.OwnerRef) error
	ListFiles(ctx context.Context, owner media.OwnerRef) ([]media.File, error)
	CountByFile(ctx context.Context, fileID string) (int64, error)
	DeleteByFile(ctx context.Context, fileID string) error
}
