package backend

import (
	"context"
	"fmt"
	"log/slog"

	"medialib/internal/backend/fsdisk"
	"medialib/internal/backend/s3disk"
	"medialib/internal/config"
)

// Open builds a registry holding one driver per configured disk.
func Open(ctx context.Context, disks map[string]config.DiskConfig, metrics *Metrics, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry(metrics, logger)

	for name, cfg := range disks {
		disk, err := openDisk(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("disk %q: %w", name, err)
		}
		registry.Register(name, disk)
		registry.logger.Info("backend disk ready", "disk", name, "driver", cfg.Driver)
	}

	return registry, nil
}

func openDisk(ctx context.Context, cfg config.DiskConfig) (Disk, error) {
	opts := []fsdisk.Option{fsdisk.WithURL(cfg.URL), fsdisk.WithSigningKey(cfg.SigningKey)}

	switch cfg.Driver {
	case "local":
		return fsdisk.NewLocal(cfg.Root, opts...)
	case "memory":
		return fsdisk.NewMemory(opts...), nil
	case "s3":
		return s3disk.New(ctx, s3disk.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			MaxRetries:      cfg.S3.MaxRetries,
			URL:             cfg.URL,
		})
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}
