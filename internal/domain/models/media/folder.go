package media

import (
	"time"
)

// Folder is a directory node. Location holds the full path of the parent
// folder, "" for a folder at the storage root.
type Folder struct {
	ID          string     `json:"id" db:"id" gorm:"primaryKey;type:text"`
	StorageID   string     `json:"storage_id" db:"storage_id" gorm:"type:text;not null;uniqueIndex:idx_folders_location_name_storage"`
	ParentID    *string    `json:"parent_id" db:"parent_id" gorm:"type:text;index"` // NULL = root level
	Name        string     `json:"name" db:"name" gorm:"type:text;not null;uniqueIndex:idx_folders_location_name_storage"`
	Location    string     `json:"location" db:"location" gorm:"type:text;not null;default:'';uniqueIndex:idx_folders_location_name_storage"`
	Description string     `json:"description,omitempty" db:"description" gorm:"type:text"`
	Private     bool       `json:"private" db:"private" gorm:"not null;default:false"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at" gorm:"index"`
}

// FullPath is the folder's own path inside its storage.
func (f *Folder) FullPath() string {
	if f.Location == "" {
		return f.Name
	}
	return f.Location + "/" + f.Name
}

// IsRoot reports whether the folder sits directly under the storage.
func (f *Folder) IsRoot() bool { return f.ParentID == nil }

// State reports whether the folder is active or trashed.
func (f *Folder) State() NodeState { return stateOf(f.DeletedAt) }
