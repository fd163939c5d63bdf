package media

import (
	"context"

	"medialib/internal/domain/models/media"
)

// AttachmentService stores rich-text uploads. Attachments stay pending until
// persisted and are reaped when they never are.
type AttachmentService interface {
	Store(ctx context.Context, req *StoreAttachmentRequest) (*media.Attachment, error)

	// Get finds an attachment by id or url
	Get(ctx context.Context, idOrURL string) (*media.Attachment, error)

	// Persist clears the pending flag
	Persist(ctx context.Context, attachment *media.Attachment) error

	// Attach links the attachment to its owner
	Attach(ctx context.Context, attachment *media.Attachment, owner media.Owner) error

	// Purge deletes the row and the backend object
	Purge(ctx context.Context, attachment *media.Attachment) error
}

// StoreAttachmentRequest represents an attachment upload
type StoreAttachmentRequest struct {
	Filename string `json:"filename"`
	Content  []byte `json:"-"`
	Disk     string `json:"disk,omitempty"`
	Private  bool   `json:"private,omitempty"`
}
