package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Imaging   ImagingConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig holds the named storage disks
type StorageConfig struct {
	// Name of the disk used when an attachment does not pick one
	DefaultDisk string
	FS          FSDiskConfig
	Redis       RedisDiskConfig
}

// FSDiskConfig configures the local filesystem disk
type FSDiskConfig struct {
	Root       string
	BaseURL    string
	Visibility string
	// Secret signs private-file URLs
	Secret string
}

// RedisDiskConfig configures the Redis-backed disk
type RedisDiskConfig struct {
	Enabled    bool
	Prefix     string
	BaseURL    string
	Visibility string
	Secret     string
}

// ImagingConfig holds libvips settings
type ImagingConfig struct {
	// Number of libvips worker threads, 0 = auto
	ConcurrencyLevel int
	// Default key prefix for generated renditions
	Folder string
	// Optional CEL expression every upload must satisfy, e.g.
	// "width >= 200 && height >= 200"
	UploadRule string
}

// RateLimitConfig throttles upload traffic
type RateLimitConfig struct {
	Enabled          bool
	UploadsPerMinute int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "renditions"),
			User:        getEnv("POSTGRES_USER", "renditions"),
			Password:    getEnv("POSTGRES_PASSWORD", "renditions"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			DefaultDisk: getEnv("STORAGE_DEFAULT_DISK", "local"),
			FS: FSDiskConfig{
				Root:       getEnv("STORAGE_FS_ROOT", "./uploads"),
				BaseURL:    getEnv("STORAGE_FS_BASE_URL", "http://localhost:8080/uploads"),
				Visibility: getEnv("STORAGE_FS_VISIBILITY", "public"),
				Secret:     getEnv("STORAGE_FS_SECRET", "insecure-dev-secret"),
			},
			Redis: RedisDiskConfig{
				Enabled:    getEnvBool("STORAGE_REDIS_ENABLED", false),
				Prefix:     getEnv("STORAGE_REDIS_PREFIX", "blob:"),
				BaseURL:    getEnv("STORAGE_REDIS_BASE_URL", "http://localhost:8080/blobs"),
				Visibility: getEnv("STORAGE_REDIS_VISIBILITY", "private"),
				Secret:     getEnv("STORAGE_REDIS_SECRET", "insecure-dev-secret"),
			},
		},
		Imaging: ImagingConfig{
			ConcurrencyLevel: getEnvInt("VIPS_CONCURRENCY", 0),
			Folder:           getEnv("RENDITIONS_FOLDER", ""),
			UploadRule:       getEnv("UPLOAD_RULE", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:          getEnvBool("RATE_LIMIT_ENABLED", false),
			UploadsPerMinute: getEnvInt("RATE_LIMIT_UPLOADS_PER_MINUTE", 30),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", true),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if v := c.Storage.FS.Visibility; v != "public" && v != "private" {
		return fmt.Errorf("invalid fs disk visibility: %s", v)
	}

	if c.Storage.Redis.Enabled {
		if v := c.Storage.Redis.Visibility; v != "public" && v != "private" {
			return fmt.Errorf("invalid redis disk visibility: %s", v)
		}
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
