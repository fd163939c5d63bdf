package media

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
)

func seedAgedFile(t *testing.T, env *testEnv, name string, age time.Duration) *models.File {
	t.Helper()
	id := uuid.NewString()
	created := time.Now().UTC().Add(-age)
	file := &models.File{
		ID:        id,
		StorageID: env.storage.ID,
		Fqfn:      id + "-" + name,
		Name:      name,
		Filename:  name + ".jpg",
		Mime:      "jpeg",
		Mimetype:  "image/jpeg",
		Type:      "image",
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, env.catalog.Files.Create(env.ctx, file))
	return file
}

func TestLonelyFiles_Days(t *testing.T) {
	env := newTestEnv(t)

	recent := seedAgedFile(t, env, "recent", 5*24*time.Hour)
	old := seedAgedFile(t, env, "old", 30*24*time.Hour)

	days := 21
	report, err := env.services.Reaper.LonelyFiles(env.ctx, models.SweepOptions{Days: &days, Force: true})
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	assert.Equal(t, old.ID, report.Candidates[0].ID)
	assert.Equal(t, 1, report.Removed)

	_, err = env.catalog.Files.GetByID(env.ctx, old.ID, "", mediaRepo.WithTrashed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.catalog.Files.GetByID(env.ctx, recent.ID, "", mediaRepo.ActiveOnly)
	assert.NoError(t, err)
}

func TestLonelyFiles_KeepsRelatedFiles(t *testing.T) {
	env := newTestEnv(t)

	linked := env.upload(t, "", "linked.jpg", "l")
	require.NoError(t, env.services.Files.Link(env.ctx, linked, post{id: "7"}))

	owned := env.upload(t, "", "owned.jpg", "o")
	require.NoError(t, env.services.Files.SetOwner(env.ctx, owned, post{id: "8"}))

	shared := env.upload(t, "", "shared.jpg", "s")
	_, err := env.services.Shares.Share(env.ctx, models.ShareableFile, shared.ID, &mediaSvc.ShareRequest{Name: "client"})
	require.NoError(t, err)

	docs := env.assert(t, "Docs")
	inShared := env.upload(t, "Docs", "inside.jpg", "i")
	_, err = env.services.Shares.Share(env.ctx, models.ShareableFolder, docs.ID, &mediaSvc.ShareRequest{Name: "team"})
	require.NoError(t, err)

	lonely := env.upload(t, "", "lonely.jpg", "x")

	report, err := env.services.Reaper.LonelyFiles(env.ctx, models.SweepOptions{Force: true})
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	assert.Equal(t, lonely.ID, report.Candidates[0].ID)
	assert.False(t, env.exists(t, "media/files/app/"+lonely.ID))

	for _, kept := range []*models.File{linked, owned, shared, inShared} {
		_, err := env.catalog.Files.GetByID(env.ctx, kept.ID, "", mediaRepo.ActiveOnly)
		assert.NoError(t, err, kept.Name)
	}
}

func TestSweep_DryRunAndConfirmation(t *testing.T) {
	env := newTestEnv(t)
	seedAgedFile(t, env, "old", 30*24*time.Hour)

	report, err := env.services.Reaper.LonelyFiles(env.ctx, models.SweepOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.Candidates, 1)
	assert.Zero(t, report.Removed)

	report, err = env.services.Reaper.LonelyFiles(env.ctx, models.SweepOptions{})
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, report.Removed)

	var asked int
	report, err = env.services.Reaper.LonelyFiles(env.ctx, models.SweepOptions{
		Confirm: func(kind models.SweepKind, count int) bool {
			assert.Equal(t, models.SweepLonelyFiles, kind)
			asked = count
			return true
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, asked)
	assert.Equal(t, 1, report.Removed)
}

func TestSweep_Batches(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		seedAgedFile(t, env, uuid.NewString()[:8], time.Hour)
	}

	report, err := env.services.Reaper.LonelyFiles(env.ctx, models.SweepOptions{Force: true, BatchSize: 2})
	require.NoError(t, err)
	assert.Len(t, report.Candidates, 5)
	assert.Equal(t, 5, report.Removed)

	_, files := env.counts(t)
	assert.Zero(t, files)
}

func TestEmptyFolders(t *testing.T) {
	env := newTestEnv(t)

	leaf := env.assert(t, "A/B")
	shared := env.assert(t, "C")
	_, err := env.services.Shares.Share(env.ctx, models.ShareableFolder, shared.ID, &mediaSvc.ShareRequest{Name: "team"})
	require.NoError(t, err)
	underShared := env.assert(t, "C/D")
	withFile := env.assert(t, "E")
	env.upload(t, "E", "keep.jpg", "k")

	report, err := env.services.Reaper.EmptyFolders(env.ctx, models.SweepOptions{Force: true})
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	assert.Equal(t, leaf.ID, report.Candidates[0].ID)
	assert.Equal(t, 1, report.Removed)
	assert.False(t, env.exists(t, "media/files/app/A/B"))
	assert.True(t, env.exists(t, "media/files/app/A"))

	for _, kept := range []*models.Folder{shared, underShared, withFile} {
		_, err := env.catalog.Folders.GetByID(env.ctx, kept.ID, "", mediaRepo.ActiveOnly)
		assert.NoError(t, err, kept.Name)
	}
}

func TestExpiredShares(t *testing.T) {
	env := newTestEnv(t)

	f := env.upload(t, "", "a.jpg", "a")
	one := 1
	never := 0
	expiring, err := env.services.Shares.Share(env.ctx, models.ShareableFile, f.ID, &mediaSvc.ShareRequest{Name: "short", ExpireInDays: &one})
	require.NoError(t, err)
	require.NotNil(t, expiring.ExpiresAt)
	permanent, err := env.services.Shares.Share(env.ctx, models.ShareableFile, f.ID, &mediaSvc.ShareRequest{Name: "forever", ExpireInDays: &never})
	require.NoError(t, err)
	assert.Nil(t, permanent.ExpiresAt)

	report, err := env.services.Reaper.ExpiredShares(env.ctx, models.SweepOptions{Force: true})
	require.NoError(t, err)
	assert.Empty(t, report.Candidates)

	report, err = env.services.Reaper.ExpiredShares(env.ctx, models.SweepOptions{Force: true, Now: time.Now().Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)

	shares, err := env.services.Shares.List(env.ctx, models.ShareableFile, f.ID)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, permanent.ID, shares[0].ID)
}

func TestPendingAttachments(t *testing.T) {
	env := newTestEnv(t)

	pending, err := env.services.Attachments.Store(env.ctx, &mediaSvc.StoreAttachmentRequest{Filename: "Diagram.png", Content: []byte("png")})
	require.NoError(t, err)
	persisted, err := env.services.Attachments.Store(env.ctx, &mediaSvc.StoreAttachmentRequest{Filename: "kept.png", Content: []byte("png")})
	require.NoError(t, err)
	require.NoError(t, env.services.Attachments.Persist(env.ctx, persisted))

	report, err := env.services.Reaper.PendingAttachments(env.ctx, models.SweepOptions{Force: true})
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	assert.Equal(t, pending.ID, report.Candidates[0].ID)

	assert.False(t, env.exists(t, "media/attachments/"+pending.Filename))
	assert.True(t, env.exists(t, "media/attachments/"+persisted.Filename))
}

func TestClean(t *testing.T) {
	env := newTestEnv(t)

	env.assert(t, "Empty")
	recent := seedAgedFile(t, env, "recent", 5*24*time.Hour)

	reports, err := env.services.Reaper.Clean(env.ctx, env.cfg.CleanUps.Clean, models.SweepOptions{Force: true})
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, models.SweepEmptyFolders, reports[0].Kind)
	assert.Equal(t, 1, reports[0].Removed)
	assert.Equal(t, models.SweepLonelyFiles, reports[1].Kind)
	assert.Zero(t, reports[1].Removed)

	_, err = env.catalog.Files.GetByID(env.ctx, recent.ID, "", mediaRepo.ActiveOnly)
	assert.NoError(t, err)

	_, err = env.services.Reaper.Clean(env.ctx, []string{"everything"}, models.SweepOptions{Force: true})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseTask(t *testing.T) {
	tests := []struct {
		task    string
		kind    models.SweepKind
		days    *int
		wantErr bool
	}{
		{"empty-folders", models.SweepEmptyFolders, nil, false},
		{"lonely-files:21", models.SweepLonelyFiles, intPtr(21), false},
		{" attachments:1 ", models.SweepPendingAttachments, intPtr(1), false},
		{"expired-shares", models.SweepExpiredShares, nil, false},
		{"expired-shareables:0", models.SweepExpiredShares, intPtr(0), false},
		{"lonely-files:-3", "", nil, true},
		{"lonely-files:soon", "", nil, true},
		{"unknown", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			kind, days, err := ParseTask(tt.task)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.days, days)
		})
	}
}

func TestSweep_BackendFailureAfterCommit(t *testing.T) {
	env := newTestEnv(t)

	first := seedAgedFile(t, env, "first", 30*24*time.Hour)
	second := seedAgedFile(t, env, "second", 30*24*time.Hour)
	env.breakDisk(t).deleteDirectory = true

	report, err := env.services.Reaper.LonelyFiles(env.ctx, models.SweepOptions{Force: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendIO)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Removed)

	for _, f := range []*models.File{first, second} {
		_, err = env.catalog.Files.GetByID(env.ctx, f.ID, "", mediaRepo.WithTrashed)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestClean_ExplicitDaysWinOverTask(t *testing.T) {
	env := newTestEnv(t)
	recent := seedAgedFile(t, env, "recent", 5*24*time.Hour)

	days := 21
	reports, err := env.services.Reaper.Clean(env.ctx, []string{"lonely-files:1"}, models.SweepOptions{Days: &days, Force: true})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Zero(t, reports[0].Removed)

	reports, err = env.services.Reaper.Clean(env.ctx, []string{"lonely-files:1"}, models.SweepOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, reports[0].Removed)

	_, err = env.catalog.Files.GetByID(env.ctx, recent.ID, "", mediaRepo.WithTrashed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
