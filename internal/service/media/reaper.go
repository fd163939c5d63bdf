package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"medialib/internal/backend"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	"medialib/internal/domain/repositories"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
)

type reaper struct {
	catalog *mediaRepo.Catalog
	backend backend.Backend
	layout  Layout
	logger  *slog.Logger
}

// NewReaper creates a new reaper
func NewReaper(
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	layout Layout,
	logger *slog.Logger,
) mediaSvc.Reaper {
	return &reaper{
		catalog: catalog,
		backend: store,
		layout:  layout,
		logger:  logger,
	}
}

// sweep describes one kind of garbage. page returns candidates after the
// query cursor ordered by id; remove deletes one candidate from the catalog.
type sweep[T any] struct {
	kind      models.SweepKind
	page      func(ctx context.Context, q mediaRepo.SweepQuery) ([]T, error)
	id        func(T) string
	candidate func(ctx context.Context, row T) (models.Candidate, error)
	remove    func(ctx context.Context, row T) (removal, error)
}

// removal is the outcome for one row. purge deletes its backend content and
// runs only after the batch transaction committed.
type removal struct {
	removed bool
	purge   func(ctx context.Context) error
}

var skipped = removal{}

func runSweep[T any](ctx context.Context, logger *slog.Logger, tx repositories.TransactionManager, s sweep[T], opts models.SweepOptions) (*models.SweepReport, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = models.DefaultSweepBatchSize
	}

	query := mediaRepo.SweepQuery{Limit: batchSize}
	if opts.Days != nil {
		clock := opts.Now
		if clock.IsZero() {
			clock = now()
		}
		olderThan := clock.AddDate(0, 0, -*opts.Days)
		query.OlderThan = &olderThan
	}

	var rows []T
	for {
		page, err := s.page(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%s: collect candidates: %w", s.kind, err)
		}
		rows = append(rows, page...)
		if len(page) < batchSize {
			break
		}
		query.AfterID = s.id(page[len(page)-1])
	}

	report := &models.SweepReport{Kind: s.kind, Candidates: make([]models.Candidate, 0, len(rows))}
	for _, row := range rows {
		c, err := s.candidate(ctx, row)
		if err != nil {
			return nil, err
		}
		report.Candidates = append(report.Candidates, c)
	}

	if len(rows) == 0 {
		logger.Info("nothing to sweep", "kind", s.kind)
		return report, nil
	}
	if opts.DryRun {
		report.DryRun = true
		logger.Info("sweep dry run", "kind", s.kind, "candidates", len(rows))
		return report, nil
	}
	if !opts.Force && (opts.Confirm == nil || !opts.Confirm(s.kind, len(rows))) {
		report.Skipped = true
		logger.Warn("sweep not confirmed", "kind", s.kind, "candidates", len(rows))
		return report, nil
	}

	var purgeErrs []error
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		var removals []removal
		err := tx.ExecTx(ctx, func(txCtx context.Context) error {
			removals = removals[:0]
			for _, row := range rows[start:end] {
				res, err := s.remove(txCtx, row)
				if err != nil {
					return fmt.Errorf("remove %s: %w", s.id(row), err)
				}
				removals = append(removals, res)
			}
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("%s: %w", s.kind, err)
		}

		removed := 0
		for _, res := range removals {
			if !res.removed {
				continue
			}
			removed++
			if res.purge == nil {
				continue
			}
			if err := res.purge(ctx); err != nil {
				logger.Warn("backend content left behind", "kind", s.kind, "error", err)
				purgeErrs = append(purgeErrs, err)
			}
		}
		report.Removed += removed
		logger.Debug("sweep batch removed", "kind", s.kind, "batch_start", start, "removed", removed)
	}

	logger.Info("sweep finished", "kind", s.kind, "candidates", len(rows), "removed", report.Removed)
	if len(purgeErrs) > 0 {
		return report, fmt.Errorf("%s: %w", s.kind, errors.Join(purgeErrs...))
	}
	return report, nil
}

func (r *reaper) EmptyFolders(ctx context.Context, opts models.SweepOptions) (*models.SweepReport, error) {
	storages := newStorageCache(r.catalog.Storages)

	return runSweep(ctx, r.logger, r.catalog.Tx, sweep[models.Folder]{
		kind: models.SweepEmptyFolders,
		page: r.catalog.Folders.EmptyFolders,
		id:   func(f models.Folder) string { return f.ID },
		candidate: func(ctx context.Context, f models.Folder) (models.Candidate, error) {
			storage, err := storages.get(ctx, f.StorageID)
			if err != nil {
				return models.Candidate{}, err
			}
			return models.Candidate{ID: f.ID, Name: f.Name, Location: f.Location, Private: f.Private, Disk: storage.Disk}, nil
		},
		remove: func(ctx context.Context, f models.Folder) (removal, error) {
			folders, files, err := r.catalog.Folders.CountChildren(ctx, f.ID)
			if err != nil {
				return skipped, err
			}
			if folders > 0 || files > 0 {
				return skipped, nil
			}

			storage, err := storages.get(ctx, f.StorageID)
			if err != nil {
				return skipped, err
			}
			path, err := r.layout.FolderPath(storage, &f)
			if err != nil {
				return skipped, err
			}

			if err := r.catalog.Shares.DeleteFor(ctx, models.ShareableFolder, f.ID); err != nil {
				return skipped, err
			}
			if f.DeletedAt == nil {
				if err := r.catalog.Folders.Trash(ctx, f.ID, now()); err != nil {
					return skipped, err
				}
			}
			if err := r.catalog.Folders.Delete(ctx, f.ID); err != nil {
				return skipped, err
			}
			return removal{removed: true, purge: func(ctx context.Context) error {
				return r.backend.DeleteDirectory(ctx, storage.Disk, path)
			}}, nil
		},
	}, opts)
}

func (r *reaper) LonelyFiles(ctx context.Context, opts models.SweepOptions) (*models.SweepReport, error) {
	storages := newStorageCache(r.catalog.Storages)

	return runSweep(ctx, r.logger, r.catalog.Tx, sweep[models.File]{
		kind: models.SweepLonelyFiles,
		page: r.catalog.Files.LonelyFiles,
		id:   func(f models.File) string { return f.ID },
		candidate: func(ctx context.Context, f models.File) (models.Candidate, error) {
			storage, err := storages.get(ctx, f.StorageID)
			if err != nil {
				return models.Candidate{}, err
			}
			return models.Candidate{ID: f.ID, Name: f.Filename, Location: f.Location, Private: f.Private, Disk: storage.Disk}, nil
		},
		remove: func(ctx context.Context, f models.File) (removal, error) {
			links, err := r.catalog.Fileables.CountByFile(ctx, f.ID)
			if err != nil {
				return skipped, err
			}
			if links > 0 {
				return skipped, nil
			}

			storage, err := storages.get(ctx, f.StorageID)
			if err != nil {
				return skipped, err
			}
			dir, err := r.layout.FileDir(storage, &f)
			if err != nil {
				return skipped, err
			}

			if err := r.catalog.Shares.DeleteFor(ctx, models.ShareableFile, f.ID); err != nil {
				return skipped, err
			}
			if f.DeletedAt == nil {
				if err := r.catalog.Files.Trash(ctx, f.ID, now()); err != nil {
					return skipped, err
				}
			}
			if err := r.catalog.Files.Delete(ctx, f.ID); err != nil {
				return skipped, err
			}
			return removal{removed: true, purge: func(ctx context.Context) error {
				return r.backend.DeleteDirectory(ctx, storage.Disk, dir)
			}}, nil
		},
	}, opts)
}

func (r *reaper) ExpiredShares(ctx context.Context, opts models.SweepOptions) (*models.SweepReport, error) {
	clock := opts.Now
	if clock.IsZero() {
		clock = now()
	}

	return runSweep(ctx, r.logger, r.catalog.Tx, sweep[models.SharedContent]{
		kind: models.SweepExpiredShares,
		page: func(ctx context.Context, q mediaRepo.SweepQuery) ([]models.SharedContent, error) {
			return r.catalog.Shares.Expired(ctx, clock, q)
		},
		id: func(s models.SharedContent) string { return s.ID },
		candidate: func(_ context.Context, s models.SharedContent) (models.Candidate, error) {
			return models.Candidate{ID: s.ID, Name: s.Name, Private: !s.Public}, nil
		},
		remove: func(ctx context.Context, s models.SharedContent) (removal, error) {
			if err := r.catalog.Shares.Delete(ctx, s.ID); err != nil {
				return skipped, err
			}
			return removal{removed: true}, nil
		},
	}, opts)
}

func (r *reaper) PendingAttachments(ctx context.Context, opts models.SweepOptions) (*models.SweepReport, error) {
	return runSweep(ctx, r.logger, r.catalog.Tx, sweep[models.Attachment]{
		kind: models.SweepPendingAttachments,
		page: r.catalog.Attachments.Pending,
		id:   func(a models.Attachment) string { return a.ID },
		candidate: func(_ context.Context, a models.Attachment) (models.Candidate, error) {
			return models.Candidate{ID: a.ID, Name: a.Filename, Disk: a.Disk}, nil
		},
		remove: func(ctx context.Context, a models.Attachment) (removal, error) {
			uri, err := r.layout.AttachmentURI(&a)
			if err != nil {
				return skipped, err
			}
			if err := r.catalog.Attachments.Delete(ctx, a.ID); err != nil {
				return skipped, err
			}
			return removal{removed: true, purge: func(ctx context.Context) error {
				return r.backend.Delete(ctx, a.Disk, uri)
			}}, nil
		},
	}, opts)
}

func (r *reaper) Sweep(ctx context.Context, kind models.SweepKind, opts models.SweepOptions) (*models.SweepReport, error) {
	switch kind {
	case models.SweepEmptyFolders:
		return r.EmptyFolders(ctx, opts)
	case models.SweepLonelyFiles:
		return r.LonelyFiles(ctx, opts)
	case models.SweepExpiredShares:
		return r.ExpiredShares(ctx, opts)
	case models.SweepPendingAttachments:
		return r.PendingAttachments(ctx, opts)
	}
	return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown clean up %q", kind)}
}

func (r *reaper) Clean(ctx context.Context, tasks []string, opts models.SweepOptions) ([]models.SweepReport, error) {
	reports := make([]models.SweepReport, 0, len(tasks))
	for _, task := range tasks {
		kind, days, err := ParseTask(task)
		if err != nil {
			return reports, err
		}

		taskOpts := opts
		if taskOpts.Days == nil {
			taskOpts.Days = days
		}
		report, err := r.Sweep(ctx, kind, taskOpts)
		if err != nil {
			return reports, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

var sweepAliases = map[string]models.SweepKind{
	"expired-shares":      models.SweepExpiredShares,
	"pending-attachments": models.SweepPendingAttachments,
}

// ParseTask parses a clean up task of the form "name[:days]".
//
//   - ParseTask("lonely-files:21") → (lonely-files, 21)
//   - ParseTask("empty-folders") → (empty-folders, nil)
func ParseTask(task string) (models.SweepKind, *int, error) {
	name, rawDays, hasDays := strings.Cut(strings.TrimSpace(task), ":")

	kind, ok := sweepAliases[name]
	if !ok {
		kind = models.SweepKind(name)
	}
	known := false
	for _, k := range models.SweepKinds {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		return "", nil, &domain.ValidationError{Message: fmt.Sprintf("unknown clean up %q", name)}
	}

	if !hasDays {
		return kind, nil, nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(rawDays))
	if err != nil || days < 0 {
		return "", nil, &domain.ValidationError{Message: fmt.Sprintf("clean up %q: days must be a non-negative integer", name)}
	}
	return kind, &days, nil
}
