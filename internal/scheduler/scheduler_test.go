package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medialib/internal/config"
	models "medialib/internal/domain/models/media"
)

type fakeCleaner struct {
	mu    sync.Mutex
	calls int
	tasks []string
	opts  models.SweepOptions
	err   error
}

func (f *fakeCleaner) Clean(_ context.Context, tasks []string, opts models.SweepOptions) ([]models.SweepReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.tasks = tasks
	f.opts = opts
	return []models.SweepReport{
		{Kind: models.SweepEmptyFolders, Removed: 2},
		{Kind: models.SweepLonelyFiles, Removed: 1},
	}, f.err
}

func (f *fakeCleaner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetValue() == label {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	cleaner := &fakeCleaner{}
	reg := prometheus.NewRegistry()
	cfg := config.CleanUpsConfig{Clean: []string{"empty-folders", "lonely-files:21"}}
	s := New(cleaner, cfg, reg, discard())

	reports, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Equal(t, cfg.Clean, cleaner.tasks)
	assert.True(t, cleaner.opts.Force)

	assert.Equal(t, 2.0, counterValue(t, reg, "medialib_cleanup_removed_total", "empty-folders"))
	assert.Equal(t, 1.0, counterValue(t, reg, "medialib_cleanup_runs_total", "ok"))

	cleaner.err = errors.New("boom")
	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "medialib_cleanup_runs_total", "error"))
}

func TestStart_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.CleanUpsConfig
		err  error
	}{
		{"disabled", config.CleanUpsConfig{Schedule: "@daily"}, ErrDisabled},
		{"bad expression", config.CleanUpsConfig{Enabled: true, Schedule: "every tuesday"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeCleaner{}, tt.cfg, nil, discard())
			err := s.Start()
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			assert.True(t, s.Next().IsZero())
		})
	}
}

func TestSchedule_Default(t *testing.T) {
	s := New(&fakeCleaner{}, config.CleanUpsConfig{Enabled: true}, nil, discard())
	assert.Equal(t, DefaultSchedule, s.Schedule())

	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	assert.True(t, s.Next().After(time.Now()))
}

func TestStart_RunsJob(t *testing.T) {
	cleaner := &fakeCleaner{}
	s := New(cleaner, config.CleanUpsConfig{Enabled: true, Schedule: "@every 1s"}, nil, discard())

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return cleaner.callCount() > 0 }, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, s.Next().IsZero())
}
