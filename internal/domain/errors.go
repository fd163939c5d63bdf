package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// The controller layer in front of the media library uses it to pick a response code.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound                 = errors.New("not found")
	ErrConflict                 = errors.New("already exists")
	ErrValidation               = errors.New("validation failed")
	ErrInvalidPath              = errors.New("invalid path")
	ErrPathTraversal            = errors.New("path is outside of the defined root")
	ErrDuplicateNode            = errors.New("duplicate node")
	ErrDestinationExists        = errors.New("destination already exists")
	ErrStorageLocationImmutable = errors.New("storage location cannot change while it has content")
	ErrStorageDiskImmutable     = errors.New("storage disk cannot change while it has content")
	ErrBackendIO                = errors.New("backend i/o failure")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewNotFound builds a NotFoundError for the given resource kind and key.
func NewNotFound(resource, key string) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("%s %q not found", resource, key)}
}

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (storage, folder, file)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string   { return e.Message }
func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// DuplicateNodeError is raised when a unique (location, name, ...) key is already taken.
// It matches both ErrDuplicateNode and ErrConflict.
type DuplicateNodeError struct {
	Kind     string // folder, file or storage
	Location string
	Name     string
}

func (e *DuplicateNodeError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("%s %q already exists at root", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %q already exists in %q", e.Kind, e.Name, e.Location)
}

func (e *DuplicateNodeError) StatusCode() int { return http.StatusConflict }

func (e *DuplicateNodeError) Is(target error) bool {
	return target == ErrDuplicateNode || target == ErrConflict
}

// InvalidPathError reports unprintable or control characters in a path.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) StatusCode() int { return http.StatusBadRequest }

func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath || target == ErrValidation
}

// PathTraversalError reports a path whose ".." segments escape the root.
type PathTraversalError struct {
	Path string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path is outside of the defined root, path: [%s]", e.Path)
}

func (e *PathTraversalError) StatusCode() int { return http.StatusBadRequest }

func (e *PathTraversalError) Is(target error) bool {
	return target == ErrPathTraversal || target == ErrInvalidPath || target == ErrValidation
}

// StorageImmutableError is raised when the location or disk of a non-empty storage changes.
type StorageImmutableError struct {
	StorageID string
	Field     string // "location" or "disk"
}

func (e *StorageImmutableError) Error() string {
	return fmt.Sprintf("storage %s: %s cannot be updated while the storage owns folders or files", e.StorageID, e.Field)
}

func (e *StorageImmutableError) StatusCode() int { return http.StatusConflict }

func (e *StorageImmutableError) Is(target error) bool {
	switch e.Field {
	case "location":
		return target == ErrStorageLocationImmutable
	case "disk":
		return target == ErrStorageDiskImmutable
	}
	return false
}

// DestinationExistsError is returned by a move whose target backend object already exists.
// No catalog or backend mutation happened.
type DestinationExistsError struct {
	Disk string
	Path string
}

func (e *DestinationExistsError) Error() string {
	return fmt.Sprintf("destination %s:%s already exists", e.Disk, e.Path)
}

func (e *DestinationExistsError) StatusCode() int { return http.StatusConflict }

func (e *DestinationExistsError) Is(target error) bool {
	return target == ErrDestinationExists || target == ErrConflict
}

// BackendIOError wraps any failure reported by an object storage disk.
type BackendIOError struct {
	Disk      string
	Operation string
	Path      string
	Err       error
}

func (e *BackendIOError) Error() string {
	return fmt.Sprintf("backend %s %s %q: %v", e.Disk, e.Operation, e.Path, e.Err)
}

func (e *BackendIOError) Unwrap() error { return e.Err }

func (e *BackendIOError) StatusCode() int { return http.StatusBadGateway }

func (e *BackendIOError) Is(target error) bool { return target == ErrBackendIO }
