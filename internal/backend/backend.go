// Package backend addresses object storage by (disk, path).
//
// A Registry holds one Disk driver per configured disk name. Every call
// through the registry is timed, counted, and any driver failure comes back
// as a *domain.BackendIOError so callers can match it with errors.Is.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
)

// Backend is the object storage surface the media services consume.
type Backend interface {
	Exists(ctx context.Context, disk, path string) (bool, error)
	Put(ctx context.Context, disk, path string, data []byte, visibility models.Visibility) error
	Get(ctx context.Context, disk, path string) ([]byte, error)
	Delete(ctx context.Context, disk, path string) error
	DeleteDirectory(ctx context.Context, disk, path string) error
	MakeDirectory(ctx context.Context, disk, path string, visibility models.Visibility) error
	Move(ctx context.Context, disk, from, to string) error
	SetVisibility(ctx context.Context, disk, path string, visibility models.Visibility) error
	URL(ctx context.Context, disk, path string) (string, error)
	TemporaryURL(ctx context.Context, disk, path string, ttl time.Duration) (string, error)
}

// Disk is a single storage driver. Paths are relative to the disk root and
// use "/" as separator.
type Disk interface {
	Exists(ctx context.Context, path string) (bool, error)
	Put(ctx context.Context, path string, data []byte, visibility models.Visibility) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	DeleteDirectory(ctx context.Context, path string) error
	MakeDirectory(ctx context.Context, path string, visibility models.Visibility) error
	// Move renames a file or a whole directory tree.
	Move(ctx context.Context, from, to string) error
	SetVisibility(ctx context.Context, path string, visibility models.Visibility) error
	URL(path string) (string, error)
	TemporaryURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// ErrUnknownDisk is returned for a disk name that was never registered.
var ErrUnknownDisk = errors.New("unknown disk")

// Registry dispatches backend calls to named disks.
type Registry struct {
	disks   map[string]Disk
	metrics *Metrics
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(metrics *Metrics, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		disks:   make(map[string]Disk),
		metrics: metrics,
		logger:  logger,
	}
}

// Register adds (or replaces) a disk driver.
func (r *Registry) Register(name string, disk Disk) {
	r.disks[name] = disk
}

// Disk returns the driver registered under name.
func (r *Registry) Disk(name string) (Disk, error) {
	disk, ok := r.disks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDisk, name)
	}
	return disk, nil
}

// Names lists the registered disks in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.disks))
	for name := range r.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// do runs one driver call and takes care of metrics and error wrapping.
func (r *Registry) do(disk, op, path string, fn func(Disk) error) error {
	driver, err := r.Disk(disk)
	if err != nil {
		return &domain.BackendIOError{Disk: disk, Operation: op, Path: path, Err: err}
	}

	start := time.Now()
	err = fn(driver)
	r.metrics.observe(disk, op, time.Since(start), err)

	if err != nil {
		r.logger.Warn("backend operation failed", "disk", disk, "operation", op, "path", path, "error", err)
		return &domain.BackendIOError{Disk: disk, Operation: op, Path: path, Err: err}
	}
	return nil
}

func (r *Registry) Exists(ctx context.Context, disk, path string) (bool, error) {
	var exists bool
	err := r.do(disk, "exists", path, func(d Disk) (err error) {
		exists, err = d.Exists(ctx, path)
		return err
	})
	return exists, err
}

func (r *Registry) Put(ctx context.Context, disk, path string, data []byte, visibility models.Visibility) error {
	err := r.do(disk, "put", path, func(d Disk) error {
		return d.Put(ctx, path, data, visibility)
	})
	if err == nil {
		r.metrics.addBytes(disk, "write", len(data))
	}
	return err
}

func (r *Registry) Get(ctx context.Context, disk, path string) ([]byte, error) {
	var data []byte
	err := r.do(disk, "get", path, func(d Disk) (err error) {
		data, err = d.Get(ctx, path)
		return err
	})
	if err == nil {
		r.metrics.addBytes(disk, "read", len(data))
	}
	return data, err
}

func (r *Registry) Delete(ctx context.Context, disk, path string) error {
	return r.do(disk, "delete", path, func(d Disk) error {
		return d.Delete(ctx, path)
	})
}

func (r *Registry) DeleteDirectory(ctx context.Context, disk, path string) error {
	return r.do(disk, "delete_directory", path, func(d Disk) error {
		return d.DeleteDirectory(ctx, path)
	})
}

func (r *Registry) MakeDirectory(ctx context.Context, disk, path string, visibility models.Visibility) error {
	return r.do(disk, "make_directory", path, func(d Disk) error {
		return d.MakeDirectory(ctx, path, visibility)
	})
}

func (r *Registry) Move(ctx context.Context, disk, from, to string) error {
	return r.do(disk, "move", from, func(d Disk) error {
		return d.Move(ctx, from, to)
	})
}

func (r *Registry) SetVisibility(ctx context.Context, disk, path string, visibility models.Visibility) error {
	return r.do(disk, "set_visibility", path, func(d Disk) error {
		return d.SetVisibility(ctx, path, visibility)
	})
}

func (r *Registry) URL(_ context.Context, disk, path string) (string, error) {
	var url string
	err := r.do(disk, "url", path, func(d Disk) (err error) {
		url, err = d.URL(path)
		return err
	})
	return url, err
}

func (r *Registry) TemporaryURL(ctx context.Context, disk, path string, ttl time.Duration) (string, error) {
	var url string
	err := r.do(disk, "temporary_url", path, func(d Disk) (err error) {
		url, err = d.TemporaryURL(ctx, path, ttl)
		return err
	})
	return url, err
}

var _ Backend = (*Registry)(nil)
