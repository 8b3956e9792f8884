package handlers

import (
	"gorm.io/gorm"

	"taskflow/domain/services"
	natspkg "taskflow/infrastructure/nats"
	"taskflow/infrastructure/redis"
	"taskflow/pkg/config"
)

// Services contains all the services needed for handlers
type Services struct {
	ApprovalService   services.ApprovalService
	AttachmentService services.AttachmentService

	// health checks; Redis and NATS are optional
	DB          *gorm.DB
	RedisClient *redis.Client
	NATSClient  *natspkg.Client

	JWTSecret string
	RateLimit config.RateLimitConfig
}

// Handlers contains all HTTP handlers
type Handlers struct {
	TaskHandler       *TaskHandler
	WorkflowHandler   *WorkflowHandler
	AttachmentHandler *AttachmentHandler
	HealthHandler     *HealthHandler

	JWTSecret string
	RateLimit config.RateLimitConfig
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(services *Services) *Handlers {
	return &Handlers{
		TaskHandler:       NewTaskHandler(services.ApprovalService),
		WorkflowHandler:   NewWorkflowHandler(services.ApprovalService),
		AttachmentHandler: NewAttachmentHandler(services.AttachmentService),
		HealthHandler:     NewHealthHandler(services.DB, services.RedisClient, services.NATSClient),
		JWTSecret:         services.JWTSecret,
		RateLimit:         services.RateLimit,
	}
}
