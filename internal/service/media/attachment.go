package media

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"medialib/internal/backend"
	"medialib/internal/config"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

type attachmentService struct {
	catalog *mediaRepo.Catalog
	backend backend.Backend
	layout  Layout
	cfg     *config.Config
	logger  *slog.Logger
}

// NewAttachmentService creates a new attachment service
func NewAttachmentService(
	catalog *mediaRepo.Catalog,
	store backend.Backend,
	layout Layout,
	cfg *config.Config,
	logger *slog.Logger,
) mediaSvc.AttachmentService {
	return &attachmentService{
		catalog: catalog,
		backend: store,
		layout:  layout,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *attachmentService) Store(ctx context.Context, req *mediaSvc.StoreAttachmentRequest) (*models.Attachment, error) {
	if err := s.validateStoreRequest(req); err != nil {
		return nil, utils.ToValidationError(err)
	}

	disk := req.Disk
	if disk == "" {
		disk = s.cfg.Attachments.Disk
	}

	id := uuid.NewString()
	ts := now()
	attachment := &models.Attachment{
		ID:        id,
		Disk:      disk,
		Pending:   true,
		Alt:       strings.TrimSuffix(path.Base(req.Filename), path.Ext(req.Filename)),
		Filename:  id + "-" + utils.CleanFilename(req.Filename),
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	uri, err := s.layout.AttachmentURI(attachment)
	if err != nil {
		return nil, err
	}
	attachment.URL, err = s.backend.URL(ctx, disk, uri)
	if err != nil {
		return nil, err
	}

	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Attachments.Create(txCtx, attachment); err != nil {
			return err
		}
		return s.backend.Put(txCtx, disk, uri, req.Content, models.VisibilityOf(req.Private))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attachment stored", "attachment_id", attachment.ID, "disk", disk, "url", attachment.URL)
	return attachment, nil
}

func (s *attachmentService) Get(ctx context.Context, idOrURL string) (*models.Attachment, error) {
	if utils.IsUUID(idOrURL) {
		return s.catalog.Attachments.GetByID(ctx, idOrURL)
	}
	attachments, err := s.catalog.Attachments.ListByURL(ctx, idOrURL)
	if err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return nil, domain.NewNotFound("attachment", idOrURL)
	}
	return &attachments[0], nil
}

func (s *attachmentService) Persist(ctx context.Context, attachment *models.Attachment) error {
	if !attachment.Pending {
		return nil
	}
	updated := *attachment
	updated.Pending = false
	updated.UpdatedAt = now()
	if err := s.catalog.Attachments.Update(ctx, &updated); err != nil {
		return err
	}
	*attachment = updated
	s.logger.Debug("attachment persisted", "attachment_id", attachment.ID)
	return nil
}

func (s *attachmentService) Attach(ctx context.Context, attachment *models.Attachment, owner models.Owner) error {
	ref := owner.MediaOwner()
	updated := *attachment
	updated.AttachableKind, updated.AttachableID = &ref.Kind, &ref.ID
	updated.UpdatedAt = now()
	if err := s.catalog.Attachments.Update(ctx, &updated); err != nil {
		return err
	}
	*attachment = updated
	s.logger.Debug("attachment attached", "attachment_id", attachment.ID, "owner_kind", ref.Kind, "owner_id", ref.ID)
	return nil
}

func (s *attachmentService) Purge(ctx context.Context, attachment *models.Attachment) error {
	uri, err := s.layout.AttachmentURI(attachment)
	if err != nil {
		return err
	}
	err = s.catalog.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.catalog.Attachments.Delete(txCtx, attachment.ID); err != nil {
			return err
		}
		return s.backend.Delete(txCtx, attachment.Disk, uri)
	})
	if err != nil {
		return fmt.Errorf("purge attachment %s: %w", attachment.ID, err)
	}

	s.logger.Info("attachment purged", "attachment_id", attachment.ID)
	return nil
}

// validateStoreRequest validates an attachment upload
func (s *attachmentService) validateStoreRequest(req *mediaSvc.StoreAttachmentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Filename,
			validation.Required.Error("filename cannot be empty"),
			utils.NotBlank.Error("filename cannot be empty"),
			validation.Length(1, config.MaxFilenameLength),
		),
		validation.Field(&req.Content, maxContentSize(s.cfg.Uploads.MaxSize, "attachment")),
	)
}
