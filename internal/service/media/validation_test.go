package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"medialib/internal/domain"
	mediaSvc "medialib/internal/domain/services/media"
)

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Uploads.MaxSize = 4

	blank := "   "
	empty := ""
	long := strings.Repeat("x", 300)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"folder name with control character", func() error {
			_, err := env.services.Folders.CreateFolder(env.ctx, env.storage, &mediaSvc.CreateFolderRequest{Name: "bad\x01"})
			return err
		}, domain.ErrInvalidPath},
		{"folder name too long", func() error {
			_, err := env.services.Folders.CreateFolder(env.ctx, env.storage, &mediaSvc.CreateFolderRequest{Name: long})
			return err
		}, domain.ErrValidation},
		{"file name explicitly dot", func() error {
			_, err := env.services.Files.CreateFile(env.ctx, env.storage, &mediaSvc.CreateFileRequest{Filename: "a.jpg", Name: "..", Content: []byte("a")})
			return err
		}, domain.ErrValidation},
		{"storage without name", func() error {
			_, err := env.services.Storages.Create(env.ctx, &mediaSvc.CreateStorageRequest{Name: blank})
			return err
		}, domain.ErrValidation},
		{"storage rename to blank", func() error {
			_, err := env.services.Storages.Update(env.ctx, env.storage.ID, &mediaSvc.UpdateStorageRequest{Name: &blank})
			return err
		}, domain.ErrValidation},
		{"storage location cleared", func() error {
			_, err := env.services.Storages.Update(env.ctx, env.storage.ID, &mediaSvc.UpdateStorageRequest{Location: &empty})
			return err
		}, domain.ErrValidation},
		{"attachment without filename", func() error {
			_, err := env.services.Attachments.Store(env.ctx, &mediaSvc.StoreAttachmentRequest{Filename: " ", Content: []byte("a")})
			return err
		}, domain.ErrValidation},
		{"attachment too large", func() error {
			_, err := env.services.Attachments.Store(env.ctx, &mediaSvc.StoreAttachmentRequest{Filename: "map.png", Content: []byte("12345")})
			return err
		}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), tt.want)
		})
	}

	folders, files := env.counts(t)
	assert.Zero(t, folders)
	assert.Zero(t, files)
	storage, err := env.services.Storages.Get(env.ctx, env.storage.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, env.storage.Name, storage.Name)
		assert.Equal(t, env.storage.Location, storage.Location)
	}
}
