package media

import (
	"time"
)

// ShareableKind tells which table a shared content points at.
type ShareableKind string

const (
	ShareableFile   ShareableKind = "file"
	ShareableFolder ShareableKind = "folder"
)

const (
	AccessTypeToken  = "token"
	AccessTypeSecret = "secret"
)

// SharedContent grants access to a file or folder, optionally until ExpiresAt.
type SharedContent struct {
	ID            string        `json:"id" db:"id" gorm:"primaryKey;type:text"`
	Name          string        `json:"name" db:"name" gorm:"type:text;not null"`
	Description   string        `json:"description,omitempty" db:"description" gorm:"type:text"`
	ShareableKind ShareableKind `json:"shareable_kind" db:"shareable_kind" gorm:"type:text;not null;index:idx_shares_shareable"`
	ShareableID   string        `json:"shareable_id" db:"shareable_id" gorm:"type:text;not null;index:idx_shares_shareable"`
	AccessType    string        `json:"access_type" db:"access_type" gorm:"type:text;not null;default:'token'"`
	Public        bool          `json:"public" db:"public" gorm:"not null;default:false"`
	CanRemove     bool          `json:"can_remove" db:"can_remove" gorm:"not null;default:false"`
	CanUpload     bool          `json:"can_upload" db:"can_upload" gorm:"not null;default:false"`
	Downloads     int           `json:"downloads" db:"downloads" gorm:"not null;default:0"`
	MaxDownloads  int           `json:"max_downloads" db:"max_downloads" gorm:"not null"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty" db:"expires_at" gorm:"index"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty" db:"deleted_at" gorm:"index"`
}

// Expired reports whether the share is past its expiry at the given instant.
func (s *SharedContent) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// Attachment is a rich-text upload that stays pending until its owner persists it.
type Attachment struct {
	ID             string    `json:"id" db:"id" gorm:"primaryKey;type:text"`
	URL            string    `json:"url" db:"url" gorm:"type:text;not null;index"`
	Disk           string    `json:"disk" db:"disk" gorm:"type:text;not null"`
	Pending        bool      `json:"pending" db:"pending" gorm:"not null"`
	Alt            string    `json:"alt,omitempty" db:"alt" gorm:"type:text"`
	Filename       string    `json:"filename" db:"filename" gorm:"type:text;not null"`
	AttachableKind *string   `json:"attachable_kind,omitempty" db:"attachable_kind" gorm:"type:text;index:idx_attachments_attachable"`
	AttachableID   *string   `json:"attachable_id,omitempty" db:"attachable_id" gorm:"type:text;index:idx_attachments_attachable"`
	CreatedAt      time.Time `json:"created_at" db:"created_at" gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
