// Package cli implements the medialib command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"medialib/internal/backend"
	"medialib/internal/config"
	models "medialib/internal/domain/models/media"
	"medialib/internal/metrics"
	"medialib/internal/service/media"
)

type VersionInfo struct {
	Version string
	Commit  string
}

// app holds what the commands share. Services are opened on first use so
// commands like "config show" never touch the catalog.
type app struct {
	v          *viper.Viper
	configPath string
	storageRef string
	jsonOutput bool

	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer

	catalog  *catalogHandle
	registry *prometheus.Registry
	services *media.Services
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "medialib",
		Short:         "Hierarchical media library",
		Long:          "Manage storages, folders and files backed by a relational catalog and local or S3 disks.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       fmt.Sprintf("%s.%s", info.Version, info.Commit),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default is ./medialib.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&a.storageRef, "storage", "s", "", "storage id or preset (default preset when empty)")
	flags.BoolVar(&a.jsonOutput, "json", false, "print results as JSON")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	cmd.AddCommand(
		newMigrateCommand(a),
		newStorageCommand(a),
		newFolderCommand(a),
		newFileCommand(a),
		newBrowseCommand(a),
		newCleanCommand(a),
		newScheduleCommand(a),
		newConfigCommand(a),
	)
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer := config.NewLogger(cfg.Log)
	a.logger = logger
	a.closers = append(a.closers, closer)
	slog.SetDefault(logger)
	return nil
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// open connects the catalog and the disks and wires the services.
func (a *app) open(ctx context.Context) (*media.Services, error) {
	if a.services != nil {
		return a.services, nil
	}

	handle, err := a.openCatalog(ctx)
	if err != nil {
		return nil, err
	}

	a.registry = metrics.NewRegistry()
	disks, err := backend.Open(ctx, a.cfg.Disks, backend.NewMetrics(a.registry), a.logger)
	if err != nil {
		return nil, err
	}

	a.services = media.NewServices(handle.catalog, disks, a.cfg, a.logger)
	return a.services, nil
}

func (a *app) openCatalog(ctx context.Context) (*catalogHandle, error) {
	if a.catalog != nil {
		return a.catalog, nil
	}
	handle, err := openCatalog(ctx, a.cfg.Catalog, a.logger)
	if err != nil {
		return nil, err
	}
	a.catalog = handle
	a.closers = append(a.closers, handle)
	return handle, nil
}

// storage resolves the --storage flag.
func (a *app) storage(ctx context.Context) (*media.Services, *models.Storage, error) {
	services, err := a.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	storage, err := services.Storages.Resolve(ctx, a.storageRef)
	if err != nil {
		return nil, nil, err
	}
	return services, storage, nil
}
