package config

const (
	// MaxStorageNameLength is the maximum length for storage names.
	MaxStorageNameLength = 255

	// MaxNodeNameLength is the maximum length for a folder or file name.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and common filesystem limits.
	MaxNodeNameLength = 255

	// MaxLocationLength is the maximum length for a materialized location.
	// Deep hierarchies beyond this indicate misuse of the namespace.
	MaxLocationLength = 1024

	// MaxFilenameLength is the maximum length of a cleaned upload filename.
	MaxFilenameLength = 255
)
