package media

import (
	"time"
)

// Visibility is the backend visibility of an object ("public" or "private").
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// VisibilityOf maps the private flag to a backend visibility.
func VisibilityOf(private bool) Visibility {
	if private {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// NodeState is the lifecycle state of a storage, folder or file row.
type NodeState string

const (
	StateActive  NodeState = "active"
	StateTrashed NodeState = "trashed"
)

func stateOf(deletedAt *time.Time) NodeState {
	if deletedAt != nil {
		return StateTrashed
	}
	return StateActive
}

// Storage is a namespace root. Folders and files are unique within it.
type Storage struct {
	ID          string     `json:"id" db:"id" gorm:"primaryKey;type:text"`
	Name        string     `json:"name" db:"name" gorm:"type:text;not null;uniqueIndex:idx_storages_location_name_disk"`
	Location    string     `json:"location" db:"location" gorm:"type:text;not null;uniqueIndex:idx_storages_location_name_disk"`
	Description string     `json:"description,omitempty" db:"description" gorm:"type:text"`
	Disk        string     `json:"disk" db:"disk" gorm:"type:text;not null;uniqueIndex:idx_storages_location_name_disk"`
	Private     bool       `json:"private" db:"private" gorm:"not null;default:false"`
	Capacity    *int64     `json:"capacity,omitempty" db:"capacity"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at" gorm:"index"`
}

// State reports whether the storage is active or trashed.
func (s *Storage) State() NodeState { return stateOf(s.DeletedAt) }
