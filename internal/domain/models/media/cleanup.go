package media

import "time"

// SweepKind names one of the garbage collection sweeps.
type SweepKind string

const (
	SweepEmptyFolders       SweepKind = "empty-folders"
	SweepLonelyFiles        SweepKind = "lonely-files"
	SweepExpiredShares      SweepKind = "expired-shareables"
	SweepPendingAttachments SweepKind = "attachments"
)

// SweepKinds lists every sweep in the order the umbrella clean runs them.
var SweepKinds = []SweepKind{
	SweepEmptyFolders,
	SweepLonelyFiles,
	SweepExpiredShares,
	SweepPendingAttachments,
}

// DefaultSweepBatchSize is the number of rows removed per batch.
const DefaultSweepBatchSize = 100

// SweepOptions controls a single sweep.
type SweepOptions struct {
	// Days limits candidates to rows created at least that many days ago. nil = no limit.
	Days *int
	// DryRun reports candidates without deleting anything.
	DryRun bool
	// Force skips the confirmation callback.
	Force bool
	// Confirm is asked before destructive work when Force is false.
	// A nil Confirm refuses (non-interactive contexts must pass Force).
	Confirm func(kind SweepKind, count int) bool
	// BatchSize overrides DefaultSweepBatchSize.
	BatchSize int
	// Now overrides the clock.
	Now time.Time
}

// Candidate is a row selected by a sweep.
type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Private  bool   `json:"private"`
	Disk     string `json:"disk,omitempty"`
}

// SweepReport summarizes a sweep run.
type SweepReport struct {
	Kind       SweepKind   `json:"kind"`
	Candidates []Candidate `json:"candidates"`
	Removed    int         `json:"removed"`
	DryRun     bool        `json:"dry_run"`
	Skipped    bool        `json:"skipped"` // confirmation refused
}
