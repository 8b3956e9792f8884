package handlers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/domain/dto"
	"taskflow/domain/services"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

type AttachmentHandler struct {
	attachmentService services.AttachmentService
}

func NewAttachmentHandler(attachmentService services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// Upload รับไฟล์ multipart (field "file") แล้วคืน metadata สำหรับแนบกับ task
func (h *AttachmentHandler) Upload(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor, err := currentActor(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequestResponse(c, "File is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open uploaded file", "filename", fileHeader.Filename, "error", err)
		return utils.InternalServerErrorResponse(c)
	}
	defer file.Close()

	uploaded, err := h.attachmentService.Upload(ctx, actor, services.UploadAttachmentInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.CreatedResponse(c, dto.UploadAttachmentResponse{
		FileName: uploaded.FileName,
		FileURL:  uploaded.FileURL,
		FileType: uploaded.FileType,
		FileSize: uploaded.FileSize,
	})
}
