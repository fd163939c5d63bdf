package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
)

// Config holds SQLite-specific configuration
type Config struct {
	// Path is a file path or a sqlite URI such as "file:test?mode=memory&cache=shared".
	Path        string
	TablePrefix string
	LogLevel    logger.LogLevel
	Logger      *slog.Logger
}

// Store is the embedded catalog backed by SQLite through GORM.
type Store struct {
	db     *gorm.DB
	tables tableNames
	logger *slog.Logger
}

type tableNames struct {
	Storages    string
	Folders     string
	Files       string
	Fileables   string
	Shares      string
	Attachments string
}

func newTableNames(naming schema.Namer) tableNames {
	return tableNames{
		Storages:    naming.TableName("Storage"),
		Folders:     naming.TableName("Folder"),
		Files:       naming.TableName("File"),
		Fileables:   naming.TableName("Fileable"),
		Shares:      naming.TableName("SharedContent"),
		Attachments: naming.TableName("Attachment"),
	}
}

// Open creates a new SQLite-backed catalog store
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	naming := schema.NamingStrategy{TablePrefix: cfg.TablePrefix}
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:         logger.Default.LogMode(cfg.LogLevel),
		NamingStrategy: naming,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite only supports 1 writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{
		db:     db,
		tables: newTableNames(naming),
		logger: cfg.Logger,
	}, nil
}

// DB returns the underlying GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate creates or updates the catalog tables and the indexes GORM tags cannot express
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.Storage{},
		&models.Folder{},
		&models.File{},
		&models.Fileable{},
		&models.SharedContent{},
		&models.Attachment{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	indexes := []string{
		// folder_id is NULL for root files; COALESCE keeps root names unique too
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_location_name_folder_storage
			ON %[1]s (location, name, COALESCE(folder_id, ''), storage_id)`, s.tables.Files),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_file_owner
			ON %[1]s (file_id, owner_kind, owner_id)`, s.tables.Fileables),
	}
	for _, stmt := range indexes {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// DropAll drops every catalog table
func (s *Store) DropAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Migrator().DropTable(
		&models.Fileable{},
		&models.SharedContent{},
		&models.Attachment{},
		&models.File{},
		&models.Folder{},
		&models.Storage{},
	)
}

// Catalog wires every repository of the store
func (s *Store) Catalog() *mediaRepo.Catalog {
	return &mediaRepo.Catalog{
		Storages:    &storageRepository{store: s},
		Folders:     &folderRepository{store: s},
		Files:       &fileRepository{store: s},
		Shares:      &shareRepository{store: s},
		Attachments: &attachmentRepository{store: s},
		Fileables:   &fileableRepository{store: s},
		Tx:          &transactionManager{store: s},
	}
}
