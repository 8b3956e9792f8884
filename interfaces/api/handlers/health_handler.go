package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	natspkg "taskflow/infrastructure/nats"
	"taskflow/infrastructure/redis"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports the database and, when configured, Redis and the
// notifications stream. Only the database is required for "ok".
type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client   // optional
	natsClient  *natspkg.Client // optional
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, natsClient *natspkg.Client) *HealthHandler {
	return &HealthHandler{db: db, redisClient: redisClient, natsClient: natsClient}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	components := fiber.Map{}

	if h.db != nil {
		if err := pingDatabase(ctx, h.db); err != nil {
			status = "unavailable"
			components["database"] = fiber.Map{"status": "down", "error": err.Error()}
		} else {
			components["database"] = fiber.Map{"status": "up"}
		}
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx); err != nil {
			components["redis"] = fiber.Map{"status": "down", "error": err.Error()}
		} else {
			components["redis"] = fiber.Map{"status": "up"}
		}
	}

	if h.natsClient != nil {
		if !h.natsClient.IsConnected() {
			components["nats"] = fiber.Map{"status": "down"}
		} else if info, err := h.natsClient.GetStatus(ctx); err != nil {
			components["nats"] = fiber.Map{"status": "degraded", "error": err.Error()}
		} else {
			components["nats"] = fiber.Map{"status": "up", "stream": info}
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":     status,
		"service":    "taskflow",
		"components": components,
	})
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
