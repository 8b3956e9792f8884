package serviceimpl

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"taskflow/domain/apperrors"
	"taskflow/domain/ports"
	"taskflow/domain/services"
	"taskflow/domain/workflow"
	"taskflow/pkg/logger"
)

type AttachmentServiceConfig struct {
	MaxUploadSize int64 // bytes, 0 = unlimited
}

type AttachmentServiceImpl struct {
	storage ports.StoragePort
	config  AttachmentServiceConfig
	now     func() time.Time
}

func NewAttachmentService(storage ports.StoragePort, config AttachmentServiceConfig) services.AttachmentService {
	return &AttachmentServiceImpl{
		storage: storage,
		config:  config,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores the file under attachments/{uploader}/{yyyy}/{mm}/ and
// returns metadata ready to be attached to a task.
func (s *AttachmentServiceImpl) Upload(ctx context.Context, actor workflow.Actor, input services.UploadAttachmentInput) (*services.AttachmentInput, error) {
	if actor.ID == uuid.Nil {
		return nil, apperrors.Forbidden("upload attachment", "an authenticated user is required")
	}
	if input.Body == nil || strings.TrimSpace(input.FileName) == "" {
		return nil, apperrors.Validation("file", "file is required")
	}
	if input.Size == 0 {
		return nil, apperrors.Validation("file", "file is empty")
	}
	if s.config.MaxUploadSize > 0 && input.Size > s.config.MaxUploadSize {
		return nil, apperrors.Validation("file", fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxUploadSize))
	}

	key := s.objectKey(actor.ID, input.FileName)
	contentType := input.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(input.FileName)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := s.storage.UploadFile(ctx, input.Body, key, input.Size, contentType)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to store attachment",
			"provider", s.storage.GetProviderName(),
			"key", key,
			"error", err,
		)
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	logger.InfoContext(ctx, "Attachment uploaded",
		"provider", s.storage.GetProviderName(),
		"key", key,
		"size", input.Size,
		"actor_id", actor.ID,
	)

	return &services.AttachmentInput{
		FileName: filepath.Base(input.FileName),
		FileURL:  url,
		FileType: contentType,
		FileSize: input.Size,
	}, nil
}

func (s *AttachmentServiceImpl) objectKey(uploader uuid.UUID, fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "file"
	}
	now := s.now()
	return fmt.Sprintf("attachments/%s/%04d/%02d/%s-%s%s",
		uploader, now.Year(), int(now.Month()), name, uuid.New().String()[:8], ext)
}
