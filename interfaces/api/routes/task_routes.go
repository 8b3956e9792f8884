package routes

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/interfaces/api/handlers"
)

// Role and ownership rules live in the approval service.
func SetupTaskRoutes(api fiber.Router, h *handlers.Handlers) {
	tasks := api.Group("/tasks")

	tasks.Post("/", h.TaskHandler.Submit)
	tasks.Post("/assigned", h.TaskHandler.CreateAssigned)
	tasks.Post("/sweep-overdue", h.WorkflowHandler.SweepOverdue)
	tasks.Get("/", h.TaskHandler.List)
	tasks.Get("/:id", h.TaskHandler.GetByID)
	tasks.Delete("/:id", h.TaskHandler.Delete)

	tasks.Post("/:id/approve", h.TaskHandler.Approve)
	tasks.Post("/:id/request-revisions", h.TaskHandler.RequestRevisions)
	tasks.Post("/:id/reject", h.TaskHandler.Reject)
	tasks.Post("/:id/resubmit", h.TaskHandler.Resubmit)
	tasks.Post("/:id/comments", h.TaskHandler.AddComment)
	tasks.Patch("/:id/status", h.TaskHandler.ChangeStatus)
	tasks.Patch("/:id/progress", h.TaskHandler.UpdateProgress)
}
