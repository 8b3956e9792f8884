package di

import (
	"fmt"

	"gorm.io/gorm"

	"taskflow/application/serviceimpl"
	"taskflow/domain/ports"
	"taskflow/domain/repositories"
	"taskflow/domain/services"
	"taskflow/infrastructure/messaging"
	natspkg "taskflow/infrastructure/nats"
	"taskflow/infrastructure/postgres"
	redispkg "taskflow/infrastructure/redis"
	"taskflow/infrastructure/storage"
	"taskflow/interfaces/api/handlers"
	"taskflow/pkg/config"
	"taskflow/pkg/logger"
	"taskflow/pkg/scheduler"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redispkg.Client  // task cache + sweep lock (optional)
	NATSClient     *natspkg.Client   // NATS connection + JetStream (optional)
	NATSPublisher  *natspkg.Publisher
	Storage        ports.StoragePort // Port/Adapter pattern
	EventScheduler scheduler.EventScheduler

	// Repositories
	UserRepository repositories.UserRepository
	TaskRepository repositories.TaskRepository

	// Notifications
	OverdueNotifier ports.OverdueNotifier

	// Services
	ApprovalService   *serviceimpl.ApprovalServiceImpl
	AttachmentService services.AttachmentService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	c.initNotifications()

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Info("Configuration loaded")
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
	)
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:            c.Config.Database.Host,
		Port:            c.Config.Database.Port,
		User:            c.Config.Database.User,
		Password:        c.Config.Database.Password,
		DBName:          c.Config.Database.DBName,
		SSLMode:         c.Config.Database.SSLMode,
		MaxOpenConns:    c.Config.Database.MaxOpenConns,
		MaxIdleConns:    c.Config.Database.MaxIdleConns,
		ConnMaxLifetime: c.Config.Database.ConnMaxLifetime,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migrated")

	// Redis (optional - graceful degradation)
	if c.Config.Redis.URL != "" {
		redisClient, err := redispkg.NewClient(&c.Config.Redis)
		if err != nil {
			logger.Warn("Redis client initialization failed (task cache and sweep lock disabled)", "error", err)
		} else {
			c.RedisClient = redisClient
			logger.Info("Redis client initialized", "url", c.Config.Redis.URL)
		}
	}

	// NATS (optional - overdue notices are only logged without it)
	if c.Config.NATS.Enabled {
		natsClient, err := natspkg.NewClient(natspkg.ClientConfig{URL: c.Config.NATS.URL})
		if err != nil {
			logger.Warn("NATS client initialization failed", "error", err)
		} else {
			c.NATSClient = natsClient
			c.NATSPublisher = natspkg.NewPublisher(natsClient.JetStream())
			logger.Info("NATS client initialized", "url", c.Config.NATS.URL)
		}
	}

	return c.initStorage()
}

// initStorage สร้าง storage adapter ตาม config
func (c *Container) initStorage() error {
	switch c.Config.Storage.Type {
	case "s3":
		s3Config := storage.S3StorageConfig{
			Endpoint:  c.Config.Storage.S3.Endpoint,
			AccessKey: c.Config.Storage.S3.AccessKey,
			SecretKey: c.Config.Storage.S3.SecretKey,
			Bucket:    c.Config.Storage.S3.Bucket,
			UseSSL:    c.Config.Storage.S3.UseSSL,
			Region:    c.Config.Storage.S3.Region,
			PublicURL: c.Config.Storage.S3.PublicURL,
		}
		s3Storage, err := storage.NewS3Storage(s3Config)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		c.Storage = s3Storage
		logger.Info("S3 Storage initialized",
			"endpoint", c.Config.Storage.S3.Endpoint,
			"bucket", c.Config.Storage.S3.Bucket,
		)

	default:
		localStorage, err := storage.NewLocalStorage(storage.LocalStorageConfig{
			BasePath: c.Config.Storage.BasePath,
			BaseURL:  c.Config.Storage.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		c.Storage = localStorage
		logger.Info("Local Storage initialized", "path", c.Config.Storage.BasePath)
	}

	return nil
}

func (c *Container) initRepositories() error {
	c.UserRepository = postgres.NewUserRepository(c.DB)
	c.TaskRepository = postgres.NewTaskRepository(c.DB, postgres.TaskRepositoryConfig{
		HardDelete: c.Config.Workflow.HardDelete,
	})
	logger.Info("Repositories initialized", "hard_delete", c.Config.Workflow.HardDelete)
	return nil
}

func (c *Container) initNotifications() {
	if c.NATSPublisher != nil {
		c.OverdueNotifier = messaging.NewNATSOverdueNotifier(c.NATSPublisher)
		logger.Info("Overdue notifier initialized", "transport", "nats")
		return
	}
	c.OverdueNotifier = messaging.NewNoopOverdueNotifier()
	logger.Warn("Overdue notices will only be logged (NATS not available)")
}

func (c *Container) initServices() error {
	c.ApprovalService = serviceimpl.NewApprovalService(
		c.TaskRepository,
		c.UserRepository,
		c.OverdueNotifier,
		c.RedisClient,
		serviceimpl.ApprovalServiceConfig{
			CEOEmail:     c.Config.Workflow.CEOEmail,
			CacheTTL:     c.Config.Workflow.TaskCacheTTL,
			SweepLockTTL: c.Config.Workflow.SweepLockTTL,
		},
	)
	logger.Info("Approval service initialized", "cache", c.RedisClient != nil)

	c.AttachmentService = serviceimpl.NewAttachmentService(c.Storage, serviceimpl.AttachmentServiceConfig{
		MaxUploadSize: c.Config.Storage.MaxUploadSize,
	})

	logger.Info("Services initialized")
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()

	if c.Config.Workflow.OverdueCron == "" {
		logger.Warn("Overdue sweep schedule disabled (WORKFLOW_OVERDUE_CRON is empty)")
	} else if err := c.ApprovalService.RegisterOverdueSweepJob(c.EventScheduler, c.Config.Workflow.OverdueCron); err != nil {
		return err
	}

	c.EventScheduler.Start()
	logger.Info("Event scheduler started")
	return nil
}

func (c *Container) Cleanup() error {
	logger.Info("Starting cleanup...")

	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
		logger.Info("Event scheduler stopped")
	}

	if c.NATSClient != nil {
		if err := c.NATSClient.Close(); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		} else {
			logger.Info("NATS connection closed")
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", "error", err)
		} else {
			logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database connection", "error", err)
			} else {
				logger.Info("Database connection closed")
			}
		}
	}

	logger.Info("Cleanup completed")
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		ApprovalService:   c.ApprovalService,
		AttachmentService: c.AttachmentService,
		DB:                c.DB,
		RedisClient:       c.RedisClient,
		NATSClient:        c.NATSClient,
		JWTSecret:         c.Config.JWT.Secret,
		RateLimit:         c.Config.App.RateLimit,
	}
}
