package media

import (
	"encoding/json"
	"time"
)

// File is a leaf node. Its content lives in a backend directory keyed by the
// file id, so the filename can change without touching other objects.
type File struct {
	ID           string          `json:"id" db:"id" gorm:"primaryKey;type:text"`
	StorageID    string          `json:"storage_id" db:"storage_id" gorm:"type:text;not null;index"`
	FolderID     *string         `json:"folder_id" db:"folder_id" gorm:"type:text;index"` // NULL = storage root
	Fqfn         string          `json:"fqfn" db:"fqfn" gorm:"type:text;not null;uniqueIndex"`
	Name         string          `json:"name" db:"name" gorm:"type:text;not null"`
	Location     string          `json:"location" db:"location" gorm:"type:text;not null;default:''"`
	Description  string          `json:"description,omitempty" db:"description" gorm:"type:text"`
	Private      bool            `json:"private" db:"private" gorm:"not null;default:false"`
	Filename     string          `json:"filename" db:"filename" gorm:"type:text;not null"`
	Mime         string          `json:"mime" db:"mime" gorm:"type:text;not null"`
	Mimetype     string          `json:"mimetype" db:"mimetype" gorm:"type:text;not null"`
	Type         string          `json:"type" db:"type" gorm:"type:text;not null;index"`
	Extension    string          `json:"extension,omitempty" db:"extension" gorm:"type:text"`
	Size         int64           `json:"size" db:"size" gorm:"not null"`
	OriginalSize int64           `json:"original_size" db:"original_size" gorm:"not null"`
	TotalSize    int64           `json:"total_size" db:"total_size" gorm:"not null"`
	Responsive   json.RawMessage `json:"responsive,omitempty" db:"responsive"`
	OwnerKind    *string         `json:"owner_kind,omitempty" db:"owner_kind" gorm:"type:text"`
	OwnerID      *string         `json:"owner_id,omitempty" db:"owner_id" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at" gorm:"index"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty" db:"deleted_at" gorm:"index"`
}

// IsImage reports whether the file was classified as an image.
func (f *File) IsImage() bool { return f.Type == "image" }

// Owner returns the single owning record, if any.
func (f *File) Owner() *OwnerRef {
	if f.OwnerKind == nil || f.OwnerID == nil {
		return nil
	}
	return &OwnerRef{Kind: *f.OwnerKind, ID: *f.OwnerID}
}

// State reports whether the file is active or trashed.
func (f *File) State() NodeState { return stateOf(f.DeletedAt) }

// OwnerRef identifies an external record (kind + id) that uses media.
type OwnerRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Owner is implemented by application records that own files or attachments.
type Owner interface {
	MediaOwner() OwnerRef
}

// Fileable links a file to an external record (many-to-many).
type Fileable struct {
	ID        int64  `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	FileID    string `json:"file_id" db:"file_id" gorm:"type:text;not null;index"`
	OwnerKind string `json:"owner_kind" db:"owner_kind" gorm:"type:text;not null;index:idx_fileables_owner"`
	OwnerID   string `json:"owner_id" db:"owner_id" gorm:"type:text;not null;index:idx_fileables_owner"`
}
