package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"medialib/internal/config"
	"medialib/internal/domain"
	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

type shareService struct {
	catalog *mediaRepo.Catalog
	cfg     *config.Config
	logger  *slog.Logger
}

// NewShareService creates a new share service
func NewShareService(catalog *mediaRepo.Catalog, cfg *config.Config, logger *slog.Logger) mediaSvc.ShareService {
	return &shareService{
		catalog: catalog,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *shareService) Share(ctx context.Context, kind models.ShareableKind, id string, req *mediaSvc.ShareRequest) (*models.SharedContent, error) {
	if err := s.ensureShareable(ctx, kind, id); err != nil {
		return nil, err
	}

	if err := s.validateShareRequest(req); err != nil {
		return nil, utils.ToValidationError(err)
	}

	name := strings.TrimSpace(req.Name)
	accessType := req.AccessType
	if accessType == "" {
		accessType = models.AccessTypeToken
	}

	defaults := s.cfg.SharedContent
	ts := now()
	share := &models.SharedContent{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   req.Description,
		ShareableKind: kind,
		ShareableID:   id,
		AccessType:    accessType,
		Public:        boolOr(req.Public, defaults.Public),
		CanRemove:     boolOr(req.CanRemove, defaults.CanRemove),
		CanUpload:     boolOr(req.CanUpload, defaults.CanUpload),
		MaxDownloads:  defaults.MaxDownloads,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if req.MaxDownloads != nil {
		share.MaxDownloads = *req.MaxDownloads
	}

	expireInDays := defaults.ExpireAfter
	if req.ExpireInDays != nil {
		expireInDays = *req.ExpireInDays
	}
	if expireInDays > 0 {
		expiresAt := ts.AddDate(0, 0, expireInDays)
		share.ExpiresAt = &expiresAt
	}

	if err := s.catalog.Shares.Create(ctx, share); err != nil {
		return nil, err
	}

	s.logger.Info("content shared",
		"share_id", share.ID,
		"shareable_kind", kind,
		"shareable_id", id,
		"expires_at", share.ExpiresAt,
	)
	return share, nil
}

// validateShareRequest validates a share request
func (s *shareService) validateShareRequest(req *mediaSvc.ShareRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required.Error("share name cannot be empty"),
			utils.NotBlank.Error("share name cannot be empty"),
		),
		validation.Field(&req.AccessType,
			validation.In(models.AccessTypeToken, models.AccessTypeSecret).
				Error(fmt.Sprintf("access type must be %q or %q", models.AccessTypeToken, models.AccessTypeSecret)),
		),
		validation.Field(&req.MaxDownloads, validation.Min(0).Error("max downloads cannot be negative")),
		validation.Field(&req.ExpireInDays, validation.Min(0).Error("expiry cannot be negative")),
	)
}

func (s *shareService) ensureShareable(ctx context.Context, kind models.ShareableKind, id string) error {
	switch kind {
	case models.ShareableFile:
		_, err := s.catalog.Files.GetByID(ctx, id, "", mediaRepo.ActiveOnly)
		return err
	case models.ShareableFolder:
		_, err := s.catalog.Folders.GetByID(ctx, id, "", mediaRepo.ActiveOnly)
		return err
	}
	return &domain.ValidationError{Message: fmt.Sprintf("cannot share a %q", kind)}
}

func (s *shareService) List(ctx context.Context, kind models.ShareableKind, id string) ([]models.SharedContent, error) {
	return s.catalog.Shares.ListFor(ctx, kind, id)
}

func (s *shareService) Revoke(ctx context.Context, id string) error {
	if err := s.catalog.Shares.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("share revoked", "share_id", id)
	return nil
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
