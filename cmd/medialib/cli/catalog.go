package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"medialib/internal/config"
	mediaRepo "medialib/internal/domain/repositories/media"
	"medialib/internal/repository/postgres"
	pgMedia "medialib/internal/repository/postgres/media"
	"medialib/internal/repository/sqlite"
)

// catalogHandle is an open catalog plus its schema operations.
type catalogHandle struct {
	driver  string
	catalog *mediaRepo.Catalog
	migrate func(ctx context.Context) error
	drop    func(ctx context.Context) error
	closeFn func() error
}

func (h *catalogHandle) Close() error { return h.closeFn() }

func openCatalog(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (*catalogHandle, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		logger.Info("catalog connected", "driver", cfg.Driver, "table_prefix", cfg.TablePrefix)

		return &catalogHandle{
			driver: cfg.Driver,
			catalog: pgMedia.NewCatalog(&postgres.RepositoryConfig{
				Pool:   pool,
				Tables: tables,
				Logger: logger,
			}),
			migrate: func(ctx context.Context) error { return postgres.Migrate(ctx, pool, tables) },
			drop:    func(ctx context.Context) error { return postgres.DropAll(ctx, pool, tables) },
			closeFn: func() error { pool.Close(); return nil },
		}, nil

	case "sqlite":
		store, err := sqlite.Open(ctx, sqlite.Config{
			Path:        cfg.SQLite.Path,
			TablePrefix: cfg.TablePrefix,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("catalog connected", "driver", cfg.Driver, "path", cfg.SQLite.Path)

		return &catalogHandle{
			driver:  cfg.Driver,
			catalog: store.Catalog(),
			migrate: store.Migrate,
			drop:    store.DropAll,
			closeFn: store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
}

func newMigrateCommand(a *app) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			handle, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}

			if fresh {
				if err := handle.drop(ctx); err != nil {
					return fmt.Errorf("drop catalog: %w", err)
				}
				a.logger.Warn("catalog dropped", "driver", handle.driver)
			}
			if err := handle.migrate(ctx); err != nil {
				return fmt.Errorf("migrate catalog: %w", err)
			}

			a.logger.Info("catalog migrated", "driver", handle.driver, "fresh", fresh)
			fmt.Fprintln(cmd.OutOrStdout(), "catalog is up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "drop every catalog table first")
	return cmd
}
