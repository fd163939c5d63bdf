package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// MoveEngine relocates files and folder subtrees inside a storage
type MoveEngine interface {
	// MoveFile moves the file's backend directory and updates its location.
	// An existing object at the target fails with DestinationExistsError and
	// changes nothing.
	MoveFile(ctx context.Context, storage *media.Storage, file *media.File, dest Destination) (*media.File, error)

	// MoveFolder moves the folder's backend directory and cascades the new
	// path to every descendant
	MoveFolder(ctx context.Context, storage *media.Storage, folder *media.Folder, dest Destination) (*media.Folder, error)

	// RenameFolder is a move to the same parent under a new name
	RenameFolder(ctx context.Context, storage *media.Storage, folder *media.Folder, name string) (*media.Folder, error)
}

// Destination is a move target: a folder, a folder id, a path, or the root
// when nothing is set. A path is asserted; "" and "." mean root.
type Destination struct {
	Folder   *media.Folder
	FolderID string
	Path     string
}

// ToFolder targets an existing folder
func ToFolder(folder *media.Folder) Destination { return Destination{Folder: folder} }

// ToFolderID targets the folder with the given id
func ToFolderID(id string) Destination { return Destination{FolderID: id} }

// ToPath targets the folder at path, creating it when needed
func ToPath(path string) Destination { return Destination{Path: path} }

// ToRoot targets the storage root
func ToRoot() Destination { return Destination{} }
