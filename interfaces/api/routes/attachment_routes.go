package routes

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/interfaces/api/handlers"
)

func SetupAttachmentRoutes(api fiber.Router, h *handlers.Handlers) {
	attachments := api.Group("/attachments")
	attachments.Post("/", h.AttachmentHandler.Upload)
}
