package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// ShareService grants and revokes access to files and folders
type ShareService interface {
	// Share creates a shared content record. Unset options take the configured defaults.
	Share(ctx context.Context, kind media.ShareableKind, id string, req *ShareRequest) (*media.SharedContent, error)

	List(ctx context.Context, kind media.ShareableKind, id string) ([]media.SharedContent, error)

	// Revoke hard deletes a share
	Revoke(ctx context.Context, id string) error
}

// ShareRequest represents a share creation request
type ShareRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	AccessType   string `json:"access_type,omitempty"`
	Public       *bool  `json:"public,omitempty"`
	CanRemove    *bool  `json:"can_remove,omitempty"`
	CanUpload    *bool  `json:"can_upload,omitempty"`
	MaxDownloads *int   `json:"max_downloads,omitempty"`
	ExpireInDays *int   `json:"expire_in_days,omitempty"` // 0 = never
}
