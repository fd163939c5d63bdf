package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// Reaper removes orphaned nodes and stale records
type Reaper interface {
	EmptyFolders(ctx context.Context, opts media.SweepOptions) (*media.SweepReport, error)
	LonelyFiles(ctx context.Context, opts media.SweepOptions) (*media.SweepReport, error)
	ExpiredShares(ctx context.Context, opts media.SweepOptions) (*media.SweepReport, error)
	PendingAttachments(ctx context.Context, opts media.SweepOptions) (*media.SweepReport, error)

	// Sweep runs one sweep by kind
	Sweep(ctx context.Context, kind media.SweepKind, opts media.SweepOptions) (*media.SweepReport, error)

	// Clean runs the configured "name[:days]" tasks in order. A task's days
	// apply only when opts.Days is nil.
	Clean(ctx context.Context, tasks []string, opts media.SweepOptions) ([]media.SweepReport, error)
}
