package routes

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/interfaces/api/handlers"
	"taskflow/interfaces/api/middleware"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers) {
	SetupHealthRoutes(app, h)

	// ทุก route ใต้ /api/v1 ต้อง login; rate limit นับต่อ user
	api := app.Group("/api/v1",
		middleware.Protected(h.JWTSecret),
		middleware.RateLimiter(h.RateLimit.RPS, h.RateLimit.Burst),
	)

	SetupWorkflowRoutes(api, h)
	SetupTaskRoutes(api, h)
	SetupAttachmentRoutes(api, h)
}
