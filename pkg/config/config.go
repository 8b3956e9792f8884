package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	NATS     NATSConfig // overdue notices for the mailer
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Storage  StorageConfig
	Workflow WorkflowConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Env         string
	CORSOrigins string // comma separated
	RateLimit   RateLimitConfig
}

// RateLimitConfig จำกัด request ต่อ user (หรือต่อ IP ถ้ายังไม่ login), RPS 0 = ปิด
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig สำหรับ task cache และ sweep lock
type RedisConfig struct {
	URL      string // redis://localhost:6379
	Password string
	DB       int
}

// NATSConfig configuration สำหรับ NATS JetStream
type NATSConfig struct {
	URL     string // nats://localhost:4222
	Enabled bool
}

type JWTConfig struct {
	Secret string
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string // logs/app.log
	MaxSize    int    // MB
	MaxBackups int    // จำนวน backup files
	MaxAge     int    // วัน
	Compress   bool   // บีบอัด backup
}

type StorageConfig struct {
	Type          string // local, s3
	BasePath      string // สำหรับ local: ./uploads
	BaseURL       string // URL สำหรับเข้าถึงไฟล์ (เช่น http://localhost:8080/files)
	MaxUploadSize int64  // bytes

	// S3-Compatible Storage (MinIO / Cloudflare R2)
	S3 S3Config
}

type S3Config struct {
	Endpoint  string // minio:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string // optional
}

// WorkflowConfig holds the approval workflow's deployment policy.
type WorkflowConfig struct {
	CEOEmail     string
	OverdueCron  string // empty disables the scheduled sweep
	HardDelete   bool
	TaskCacheTTL time.Duration
	SweepLockTTL time.Duration
}

func LoadConfig() (*Config, error) {
	// .env is optional; plain environment variables work too
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "Taskflow"),
			Port: getEnv("APP_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),

			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			RateLimit: RateLimitConfig{
				RPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
				Burst: getEnvInt("RATE_LIMIT_BURST", 40),
			},
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "taskflow"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvBool("NATS_ENABLED", true),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE", "logs/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Storage: StorageConfig{
			Type:          getEnv("STORAGE_TYPE", "local"),
			BasePath:      getEnv("STORAGE_BASE_PATH", "./uploads"),
			BaseURL:       getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
			MaxUploadSize: getEnvInt64("STORAGE_MAX_UPLOAD_SIZE", 25<<20),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
				SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
				Bucket:    getEnv("S3_BUCKET", "task-attachments"),
				UseSSL:    getEnvBool("S3_USE_SSL", false),
				Region:    getEnv("S3_REGION", "us-east-1"),
				PublicURL: getEnv("S3_PUBLIC_URL", ""),
			},
		},
		Workflow: WorkflowConfig{
			CEOEmail:     getEnv("WORKFLOW_CEO_EMAIL", ""),
			OverdueCron:  getEnv("WORKFLOW_OVERDUE_CRON", "*/15 * * * *"),
			HardDelete:   getEnvBool("WORKFLOW_HARD_DELETE", false),
			TaskCacheTTL: getEnvDuration("WORKFLOW_TASK_CACHE_TTL", 5*time.Minute),
			SweepLockTTL: getEnvDuration("WORKFLOW_SWEEP_LOCK_TTL", 2*time.Minute),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go durations ("90s", "5m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

// IsDevelopment ตรวจสอบว่าเป็น development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction ตรวจสอบว่าเป็น production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
