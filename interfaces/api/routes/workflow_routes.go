package routes

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/interfaces/api/handlers"
)

func SetupWorkflowRoutes(api fiber.Router, h *handlers.Handlers) {
	workflow := api.Group("/workflow")
	workflow.Get("/transitions", h.WorkflowHandler.Transitions)
}
