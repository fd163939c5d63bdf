package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (MEDIALIB_CATALOG_DATABASE_URL, ...).
const EnvPrefix = "MEDIALIB"

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`

	// Folder is prepended to every storage and attachment location. Empty to omit.
	Folder string `mapstructure:"folder" yaml:"folder"`

	Uploads       UploadsConfig         `mapstructure:"uploads"        yaml:"uploads"`
	Attachments   AttachmentsConfig     `mapstructure:"attachments"    yaml:"attachments"`
	Storage       StorageConfig         `mapstructure:"storage"        yaml:"storage"`
	Disks         map[string]DiskConfig `mapstructure:"disks"          yaml:"disks"`
	Catalog       CatalogConfig         `mapstructure:"catalog"        yaml:"catalog"`
	CleanUps      CleanUpsConfig        `mapstructure:"clean_ups"      yaml:"clean_ups"`
	SharedContent SharedContentConfig   `mapstructure:"shared_content" yaml:"shared_content"`
	Types         map[string][]string   `mapstructure:"types"          yaml:"types"`
	Log           LogConfig             `mapstructure:"log"            yaml:"log"`
	Metrics       MetricsConfig         `mapstructure:"metrics"        yaml:"metrics"`
}

type UploadsConfig struct {
	// Location of uploaded files, relative to Folder.
	Location string `mapstructure:"location" yaml:"location"`
	// Types lists the allowed extensions. Empty allows everything.
	Types []string `mapstructure:"types" yaml:"types"`
	// MaxSize in bytes. 0 disables the limit.
	MaxSize int64 `mapstructure:"max_size" yaml:"max_size"`
	// TemporaryURLTTL is the lifetime of signed urls for private files.
	TemporaryURLTTL time.Duration `mapstructure:"temporary_url_ttl" yaml:"temporary_url_ttl"`
}

type AttachmentsConfig struct {
	Disk     string `mapstructure:"disk"     yaml:"disk"`
	Location string `mapstructure:"location" yaml:"location"`
}

type StorageConfig struct {
	// Default is the preset used when no storage is named.
	Default string `mapstructure:"default" yaml:"default"`
	// Disk and Private are used for storages created without them.
	Disk    string                   `mapstructure:"disk"    yaml:"disk"`
	Private bool                     `mapstructure:"private" yaml:"private"`
	Presets map[string]StoragePreset `mapstructure:"presets" yaml:"presets"`
}

type StoragePreset struct {
	Name     string `mapstructure:"name"     yaml:"name"`
	Location string `mapstructure:"location" yaml:"location"`
	Disk     string `mapstructure:"disk"     yaml:"disk"`
	Private  *bool  `mapstructure:"private"  yaml:"private,omitempty"`
}

// DiskConfig configures one named backend disk.
type DiskConfig struct {
	// Driver is one of local, memory or s3.
	Driver string `mapstructure:"driver" yaml:"driver"`
	// Root directory for the local driver.
	Root string `mapstructure:"root" yaml:"root"`
	// URL is the public base url objects are served under.
	URL string `mapstructure:"url" yaml:"url"`
	// SigningKey signs temporary urls of the local and memory drivers.
	SigningKey string `mapstructure:"signing_key" yaml:"signing_key"`

	S3 S3DiskConfig `mapstructure:"s3" yaml:"s3"`
}

type S3DiskConfig struct {
	Bucket          string `mapstructure:"bucket"            yaml:"bucket"`
	Region          string `mapstructure:"region"            yaml:"region"`
	Endpoint        string `mapstructure:"endpoint"          yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"     yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"            yaml:"prefix"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"  yaml:"force_path_style"`
	MaxRetries      int    `mapstructure:"max_retries"       yaml:"max_retries"`
}

type CatalogConfig struct {
	// Driver is postgres or sqlite.
	Driver      string       `mapstructure:"driver"       yaml:"driver"`
	DatabaseURL string       `mapstructure:"database_url" yaml:"database_url"`
	TablePrefix string       `mapstructure:"table_prefix" yaml:"table_prefix"`
	SQLite      SQLiteConfig `mapstructure:"sqlite"       yaml:"sqlite"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type CleanUpsConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Schedule string   `mapstructure:"schedule" yaml:"schedule"`
	Clean    []string `mapstructure:"clean"    yaml:"clean"`
}

type SharedContentConfig struct {
	Public       bool `mapstructure:"public"        yaml:"public"`
	MaxDownloads int  `mapstructure:"max_downloads" yaml:"max_downloads"`
	CanUpload    bool `mapstructure:"can_upload"    yaml:"can_upload"`
	CanRemove    bool `mapstructure:"can_remove"    yaml:"can_remove"`
	// ExpireAfter is the number of days until a share expires. 0 disables expiry.
	ExpireAfter int `mapstructure:"expire_after" yaml:"expire_after"`
}

type LogConfig struct {
	Level    string            `mapstructure:"level"    yaml:"level"`
	JSON     bool              `mapstructure:"json"     yaml:"json"`
	File     string            `mapstructure:"file"     yaml:"file"`
	Rotation LogRotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"    yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"     yaml:"max_age"`
	Compress   bool `mapstructure:"compress"    yaml:"compress"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Environment: "dev",
		Folder:      "media",
		Uploads: UploadsConfig{
			Location: "files",
			Types: []string{
				"jpg", "jpeg", "png", "gif", "svg",
				"xls", "docx", "xlsx", "pdf",
				"mp3", "mp4",
			},
			MaxSize:         2 * 1024 * 1024,
			TemporaryURLTTL: 30 * time.Minute,
		},
		Attachments: AttachmentsConfig{
			Disk:     "local",
			Location: "attachments",
		},
		Storage: StorageConfig{
			Default: "app",
			Disk:    "local",
			Private: false,
			Presets: map[string]StoragePreset{
				"app": {Name: "App Storage", Location: "app", Disk: "local"},
			},
		},
		Disks: map[string]DiskConfig{
			"local": {Driver: "local", Root: "./storage", URL: "/storage"},
		},
		Catalog: CatalogConfig{
			Driver:      "sqlite",
			TablePrefix: "dev_",
			SQLite:      SQLiteConfig{Path: "./medialib.db"},
		},
		CleanUps: CleanUpsConfig{
			Enabled:  false,
			Schedule: "@weekly",
			Clean:    []string{"empty-folders", "lonely-files:21", "attachments:1"},
		},
		SharedContent: SharedContentConfig{
			CanRemove:   true,
			ExpireAfter: 7,
		},
		Types: map[string][]string{
			"image": {"jpg", "jpeg", "png", "gif", "svg"},
			"audio": {"mp3"},
			"video": {"mp4"},
			"docs": {
				"doc", "docx", "docm", "dotx", "dotm", "docb",
				"xls", "xlsx", "xlsm", "xltx", "xltm",
				"ppt", "pptx", "pptm", "potx", "potm", "ppam", "ppsx", "ppsm", "sldx", "sldm",
				"pdf", "one",
			},
		},
		Log: LogConfig{
			Level: "info",
			JSON:  true,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
			},
		},
		Metrics: MetricsConfig{Addr: ":9102"},
	}
}

// SetDefaults registers Default() on v so that file and env values layer on top.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("environment", d.Environment)
	v.SetDefault("folder", d.Folder)

	v.SetDefault("uploads.location", d.Uploads.Location)
	v.SetDefault("uploads.types", d.Uploads.Types)
	v.SetDefault("uploads.max_size", d.Uploads.MaxSize)
	v.SetDefault("uploads.temporary_url_ttl", d.Uploads.TemporaryURLTTL)

	v.SetDefault("attachments.disk", d.Attachments.Disk)
	v.SetDefault("attachments.location", d.Attachments.Location)

	v.SetDefault("storage.default", d.Storage.Default)
	v.SetDefault("storage.disk", d.Storage.Disk)
	v.SetDefault("storage.private", d.Storage.Private)
	v.SetDefault("storage.presets.app.name", d.Storage.Presets["app"].Name)
	v.SetDefault("storage.presets.app.location", d.Storage.Presets["app"].Location)
	v.SetDefault("storage.presets.app.disk", d.Storage.Presets["app"].Disk)

	v.SetDefault("disks.local.driver", d.Disks["local"].Driver)
	v.SetDefault("disks.local.root", d.Disks["local"].Root)
	v.SetDefault("disks.local.url", d.Disks["local"].URL)

	v.SetDefault("catalog.driver", d.Catalog.Driver)
	v.SetDefault("catalog.database_url", d.Catalog.DatabaseURL)
	v.SetDefault("catalog.table_prefix", d.Catalog.TablePrefix)
	v.SetDefault("catalog.sqlite.path", d.Catalog.SQLite.Path)

	v.SetDefault("clean_ups.enabled", d.CleanUps.Enabled)
	v.SetDefault("clean_ups.schedule", d.CleanUps.Schedule)
	v.SetDefault("clean_ups.clean", d.CleanUps.Clean)

	v.SetDefault("shared_content.public", d.SharedContent.Public)
	v.SetDefault("shared_content.max_downloads", d.SharedContent.MaxDownloads)
	v.SetDefault("shared_content.can_upload", d.SharedContent.CanUpload)
	v.SetDefault("shared_content.can_remove", d.SharedContent.CanRemove)
	v.SetDefault("shared_content.expire_after", d.SharedContent.ExpireAfter)

	for group, extensions := range d.Types {
		v.SetDefault("types."+group, extensions)
	}

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.rotation.max_size", d.Log.Rotation.MaxSize)
	v.SetDefault("log.rotation.max_backups", d.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age", d.Log.Rotation.MaxAge)
	v.SetDefault("log.rotation.compress", d.Log.Rotation.Compress)

	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Load reads .env files, the YAML config at path (or the default search paths
// when path is empty) and MEDIALIB_* environment overrides into a validated Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	// Silently ignore missing .env files (production injects env directly)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	} else {
		v.SetConfigName("medialib")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/medialib")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// An explicit path that does not exist is an error; the search paths are optional
			if path != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints of the configuration.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Uploads),
		validation.Field(&c.Storage),
		validation.Field(&c.Catalog),
		validation.Field(&c.CleanUps),
		validation.Field(&c.Disks, validation.Required),
		validation.Field(&c.SharedContent),
	)
	if err != nil {
		return err
	}

	for _, disk := range []string{c.Storage.Disk, c.Attachments.Disk} {
		if _, ok := c.Disks[disk]; !ok {
			return fmt.Errorf("disk %q is not configured", disk)
		}
	}
	for name, preset := range c.Storage.Presets {
		if preset.Disk == "" {
			continue
		}
		if _, ok := c.Disks[preset.Disk]; !ok {
			return fmt.Errorf("storage preset %q: disk %q is not configured", name, preset.Disk)
		}
	}
	return nil
}

func (u UploadsConfig) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Location, validation.Required),
		validation.Field(&u.MaxSize, validation.Min(int64(0))),
	)
}

func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Disk, validation.Required),
		validation.Field(&s.Default, validation.By(func(value any) error {
			name, _ := value.(string)
			if name == "" {
				return nil
			}
			if _, ok := s.Presets[name]; !ok {
				return fmt.Errorf("preset %q is not defined", name)
			}
			return nil
		})),
	)
}

func (c CatalogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("postgres", "sqlite")),
		validation.Field(&c.DatabaseURL, validation.When(c.Driver == "postgres", validation.Required)),
		validation.Field(&c.SQLite, validation.When(c.Driver == "sqlite", validation.By(func(any) error {
			if c.SQLite.Path == "" {
				return fmt.Errorf("path is required")
			}
			return nil
		}))),
	)
}

func (c CleanUpsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Schedule, validation.When(c.Enabled, validation.Required)),
	)
}

func (s SharedContentConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ExpireAfter, validation.Min(0)),
		validation.Field(&s.MaxDownloads, validation.Min(0)),
	)
}

func (d DiskConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("local", "memory", "s3")),
		validation.Field(&d.Root, validation.When(d.Driver == "local", validation.Required)),
		validation.Field(&d.S3, validation.When(d.Driver == "s3", validation.By(func(any) error {
			if d.S3.Bucket == "" {
				return fmt.Errorf("bucket is required")
			}
			return nil
		}))),
	)
}

// FileType maps a mimetype and extension onto one of the configured type groups.
// Unknown application/* files are "other"; everything else falls back to the subtype.
func (c *Config) FileType(mimetype, extension string) string {
	base, subtype, _ := strings.Cut(strings.ToLower(mimetype), "/")
	if extension == "" {
		extension = subtype
	}
	if subtype == "svg+xml" {
		subtype = "svg"
	}

	groups := make([]string, 0, len(c.Types))
	for group := range c.Types {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		for _, ext := range c.Types[group] {
			if ext == subtype || ext == extension {
				return group
			}
		}
	}

	if base == "application" {
		return "other"
	}
	if subtype != "" {
		return subtype
	}
	return base
}

// MimeSubtype returns the subtype of a mimetype ("image/svg+xml" → "svg").
func MimeSubtype(mimetype string) string {
	base, subtype, _ := strings.Cut(strings.ToLower(mimetype), "/")
	if subtype == "svg+xml" {
		return "svg"
	}
	if subtype == "" {
		return base
	}
	return subtype
}

// AllowsExtension reports whether uploads of the given extension are accepted.
func (u UploadsConfig) AllowsExtension(ext string) bool {
	if len(u.Types) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, allowed := range u.Types {
		if allowed == "*" || strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// Preset returns the named storage preset.
func (s StorageConfig) Preset(name string) (StoragePreset, bool) {
	preset, ok := s.Presets[name]
	return preset, ok
}
