package services

import (
	"context"
	"io"

	"taskflow/domain/workflow"
)

type UploadAttachmentInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentService stores uploaded files. The returned metadata is what
// clients send back in a task's attachments list.
type AttachmentService interface {
	Upload(ctx context.Context, actor workflow.Actor, input UploadAttachmentInput) (*AttachmentInput, error)
}
